package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leakwatch/leakwatch/internal/dispatch"
	"github.com/leakwatch/leakwatch/internal/rules"
	"github.com/leakwatch/leakwatch/internal/types"
)

func TestPrintOutcomes(t *testing.T) {
	var buf bytes.Buffer
	outs := []types.RunOutcome{
		{Success: true, Rule: "[KEYS][acme][token]", Found: 2, PagesSkipped: 1},
		{Success: false, Rule: "[KEYS][acme][passwd]", Message: "quota exhausted"},
	}
	sum := dispatch.Summary{Succeeded: 1, Failed: 1, Found: 2, PagesSkipped: 1}

	PrintOutcomes(&buf, outs, sum, PrintOptions{NoColor: true, Duration: 1500 * time.Millisecond})
	got := buf.String()

	assert.Contains(t, got, "OK")
	assert.Contains(t, got, "found=2")
	assert.Contains(t, got, "pages_skipped=1")
	assert.Contains(t, got, "FAIL")
	assert.Contains(t, got, "quota exhausted")
	assert.Contains(t, got, "Rules: 2 (ok: 1, failed: 1)")
	assert.Contains(t, got, "results may be incomplete")
	assert.Contains(t, got, "Scan duration: 1.50s")
	// failures sort before successes alphabetically by rule summary
	assert.Less(t, strings.Index(got, "passwd"), strings.Index(got, "token"))
}

func TestPrintOutcomesNoColorOmitsEscape(t *testing.T) {
	var buf bytes.Buffer
	PrintOutcomes(&buf, []types.RunOutcome{{Success: true, Rule: "[A][b][c]"}}, dispatch.Summary{Succeeded: 1}, PrintOptions{NoColor: true})
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestPrintRules(t *testing.T) {
	var buf bytes.Buffer
	rs := []rules.Rule{rules.New("keys", "acme", "token", "only-match", "go", 3)}
	require.NoError(t, PrintRules(&buf, rs))
	got := buf.String()
	assert.Contains(t, got, "acme")
	assert.Contains(t, got, "only-match")
}
