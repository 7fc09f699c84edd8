package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/leakwatch/leakwatch/internal/audit"
	"github.com/leakwatch/leakwatch/internal/dispatch"
	"github.com/leakwatch/leakwatch/internal/rules"
	"github.com/leakwatch/leakwatch/internal/store"
	"github.com/leakwatch/leakwatch/internal/types"
)

// PrintOptions controls outcome rendering.
type PrintOptions struct {
	NoColor  bool
	Duration time.Duration
}

// PrintOutcomes writes one line per rule outcome plus a summary footer.
func PrintOutcomes(w io.Writer, outcomes []types.RunOutcome, sum dispatch.Summary, opts PrintOptions) {
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Rule < outcomes[j].Rule
	})
	for _, out := range outcomes {
		status := "FAIL"
		if out.Success {
			status = "OK"
		}
		if !opts.NoColor {
			status = colorStatus(out.Success)
		}
		if out.Success {
			fmt.Fprintf(w, "%-6s %s found=%d", status, out.Rule, out.Found)
			if out.PagesSkipped > 0 {
				fmt.Fprintf(w, " pages_skipped=%d", out.PagesSkipped)
			}
			fmt.Fprintln(w)
		} else {
			fmt.Fprintf(w, "%-6s %s %s\n", status, out.Rule, out.Message)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rules: %d (ok: %d, failed: %d)\n", len(outcomes), sum.Succeeded, sum.Failed)
	fmt.Fprintf(w, "Findings: %d\n", sum.Found)
	if sum.PagesSkipped > 0 {
		fmt.Fprintf(w, "Pages skipped: %d (results may be incomplete)\n", sum.PagesSkipped)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
}

func colorStatus(ok bool) string {
	if ok {
		return "\x1b[32mOK\x1b[0m"
	}
	return "\x1b[31mFAIL\x1b[0m"
}

// PrintRules renders the resolved rule set as a table.
func PrintRules(w io.Writer, rs []rules.Rule) error {
	tbl := tablewriter.NewWriter(w)
	tbl.Header("Category", "Corp", "Keyword", "Mode", "Extensions", "Lines")
	for _, r := range rs {
		if err := tbl.Append(r.Category, r.Corp, r.Keyword, string(r.Mode),
			fmt.Sprintf("%d", len(r.Extensions)), fmt.Sprintf("%d", r.Lines)); err != nil {
			return err
		}
	}
	return tbl.Render()
}

// PrintHistory renders past run records, most recent first.
func PrintHistory(w io.Writer, records []audit.RunRecord) error {
	tbl := tablewriter.NewWriter(w)
	tbl.Header("Time", "Run", "Rules", "OK", "Failed", "Found", "Skipped")
	for _, rec := range records {
		id := rec.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		if err := tbl.Append(rec.Timestamp.Format("2006-01-02 15:04"), id,
			fmt.Sprintf("%d", rec.Rules), fmt.Sprintf("%d", rec.Succeeded),
			fmt.Sprintf("%d", rec.Failed), fmt.Sprintf("%d", rec.Found),
			fmt.Sprintf("%d", rec.PagesSkipped)); err != nil {
			return err
		}
	}
	return tbl.Render()
}

// PrintFindingCounts renders stored finding totals per rule scope.
func PrintFindingCounts(w io.Writer, counts []store.RuleCount) error {
	tbl := tablewriter.NewWriter(w)
	tbl.Header("Rule", "Findings")
	for _, rc := range counts {
		if err := tbl.Append(rc.Rule, fmt.Sprintf("%d", rc.Count)); err != nil {
			return err
		}
	}
	return tbl.Render()
}
