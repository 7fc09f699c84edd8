package core

import (
	"context"

	"github.com/leakwatch/leakwatch/internal/engine"
	"github.com/leakwatch/leakwatch/internal/rules"
	"github.com/leakwatch/leakwatch/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type Config = engine.Config
type Result = engine.Result
type Rule = rules.Rule
type Finding = types.Finding
type RunOutcome = types.RunOutcome

// Scan is the stable entrypoint for other programs.
func Scan(ctx context.Context, cfg Config) (Result, error) {
	return engine.Scan(ctx, cfg)
}

// LoadRules parses a rules file, keeping only the named categories.
// An empty category list keeps everything. Exposed for convenience so
// callers need not import internals directly.
func LoadRules(path string, categories []string) ([]Rule, error) {
	return rules.Load(path, categories)
}
