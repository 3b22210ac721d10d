// Package redis wraps go-redis for the diarization result cache: a lazily
// dialed Client with a health probe, and Store, a namespaced JSON store
// with optional sealing.
//
//	client, err := redis.New(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	store := redis.NewStore[diarization.Result](client, "speakerkit:diarization", redis.WithTTL(24*time.Hour))
//	res, found, err := store.Get(ctx, fingerprint)
package redis
