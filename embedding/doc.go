// Package embedding maps speech segments to fixed-length speaker vectors.
//
// A Model embeds one slice of samples. SpectralModel is the built-in,
// deterministic model: log mel-band energies summarised by their mean and
// spread over time, L2-normalised into 256 dimensions. The sidecar
// subpackage delegates to a pretrained model over HTTP.
//
// Extractor slices the buffer per segment and runs the model on a bounded
// worker pool. Output order always equals segment order.
package embedding
