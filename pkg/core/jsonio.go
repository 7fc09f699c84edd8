package core

import (
	"encoding/json"
	"io"
)

// MarshalOutcomes pretty-prints run outcomes as JSON for humans or pipelines.
func MarshalOutcomes(w io.Writer, outcomes []RunOutcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcomes)
}

// UnmarshalOutcomes decodes outcome JSON, useful for ingestion tests.
func UnmarshalOutcomes(r io.Reader) ([]RunOutcome, error) {
	var outs []RunOutcome
	if err := json.NewDecoder(r).Decode(&outs); err != nil {
		return nil, err
	}
	return outs, nil
}
