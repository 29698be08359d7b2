// Package embed declares the embedding-provider contract used by the
// Pipeline and SearchEngine. The concrete model-backed implementation
// is out of scope for this module (spec.md §1's external Embedder
// collaborator); only the interface and a deterministic mock ship
// here.
package embed

import "context"

// Mode specifies whether a batch of text is being embedded as a
// search query or as indexed document content — some embedding
// models produce different vectors for the two roles.
type Mode string

const (
	// ModeQuery embeds a user's search query.
	ModeQuery Mode = "query"
	// ModePassage embeds chunk content being indexed.
	ModePassage Mode = "passage"
)

// Provider converts text into vectors. Implementations may wrap a
// local model, a remote API, or (for tests) a deterministic mock.
type Provider interface {
	// Embed returns one vector per text, in order.
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)

	// Dimensions reports the fixed vector length this provider
	// produces.
	Dimensions() int

	// Close releases provider resources.
	Close() error
}
