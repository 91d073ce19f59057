package port

import "context"

// ClassificationOracle labels a text using an external service. It returns one
// of allowedLabels or an error; it never returns a label outside the set.
type ClassificationOracle interface {
	Classify(ctx context.Context, text string, allowedLabels []string) (string, error)
}
