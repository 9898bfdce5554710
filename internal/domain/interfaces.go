package domain

import "context"

// StateStore is a generic key to JSON-document store. Get reports absence via
// ok=false rather than an error so callers can fall back to defaults.
type StateStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Analyzer produces an AI market analysis for a trading pair.
type Analyzer interface {
	Analyze(ctx context.Context, pair string) (*AnalysisReport, error)
}
