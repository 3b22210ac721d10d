// Package encryption seals cached diarization results at rest.
//
// Both ciphers are AEADs keyed by the SHA-256 of a passphrase. Ciphertext
// is base64(nonce || sealed) so it can live in a Redis string.
//
//	enc, err := encryption.New(encryption.Config{Key: os.Getenv("CACHE_KEY")})
//	sealed, err := enc.Encrypt(`{"speakerCount":2}`)
package encryption
