// Package core provides a small, stable facade over leakwatch's internal
// engine for external integrations. It deliberately re-exports a narrow API
// surface so other tools can depend on a stable import path without reaching
// into internal packages.
//
// Example:
//
//	cfg := core.Config{Credentials: creds, Rules: ruleSet, Pages: 10}
//	res, err := core.Scan(context.Background(), cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalOutcomes(os.Stdout, res.Outcomes)
package core
