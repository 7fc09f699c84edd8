package types

import "time"

// RawHit is one remote code-search result before extraction and filtering.
// File content is fetched separately by the session, keyed by SHA.
type RawHit struct {
	URL        string // HTML URL of the matched file
	SHA        string // content blob hash, used for cross-run dedup
	Path       string // file path within the repository
	Repository string // repository full name (owner/name)
}

// Finding is a deduplicated, accepted match ready for review. Hash is derived
// from the canonical repository URL plus the rule scope, so the same blob is
// reported at most once per scope even across repeated runs.
type Finding struct {
	Hash    string   `json:"hash"`
	URL     string   `json:"url"`
	Rule    string   `json:"rule"`
	Keyword string   `json:"keyword"`
	Matches []string `json:"matches"`
}

// RunOutcome summarizes one rule's search session for reporting. It is not
// persisted by the engine itself.
type RunOutcome struct {
	Time         time.Time `json:"time"`
	Success      bool      `json:"success"`
	Rule         string    `json:"rule"` // "[CATEGORY][corp][keyword]"
	Message      string    `json:"message,omitempty"`
	Found        int       `json:"found"`
	PagesSkipped int       `json:"pages_skipped,omitempty"`
}
