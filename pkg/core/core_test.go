package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScanRejectsBadConfig(t *testing.T) {
	_, err := Scan(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yml")
	data := []byte("CI:\n  example:\n    \"example.com\":\n      mode: only-match\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	rs, err := LoadRules(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 || rs[0].Category != "CI" {
		t.Fatalf("unexpected rules: %+v", rs)
	}
}

func TestOutcomeJSONRoundTrip(t *testing.T) {
	outs := []RunOutcome{{Time: time.Now().UTC(), Success: true, Rule: "[CI][example][example.com]", Found: 2}}
	var buf bytes.Buffer
	if err := MarshalOutcomes(&buf, outs); err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalOutcomes(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Rule != outs[0].Rule || got[0].Found != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
