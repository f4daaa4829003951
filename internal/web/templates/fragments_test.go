package templates

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesdesk/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func date(y int, m time.Month, d int) pgtype.Date {
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func TestErrorAlert(t *testing.T) {
	got := render(t, ErrorAlert(core.UserMessage{Message: "Bad <file>", Action: "Retry", Code: "FILE006"}))

	assert.Equal(t,
		`<div class="alert alert-error" role="alert"><p class="alert-message">Bad &lt;file&gt;</p><p class="alert-action">Retry</p><p class="alert-code">Code: FILE006</p></div>`,
		got)
}

func TestLoadBanner(t *testing.T) {
	res := &core.LoadResult{
		ID:        uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		FileName:  "march.csv",
		Rows:      4,
		Delimiter: "semicolon",
		Encoding:  core.DecodeInfo{Used: "windows-1251"},
		Warnings:  []string{"Product or quantity column not found"},
	}

	got := render(t, LoadBanner(res))

	assert.Contains(t, got, `data-load-id="00000000-0000-0000-0000-000000000001"`)
	assert.Contains(t, got, "<p>Loaded <strong>march.csv</strong>: 4 rows, semicolon separated, windows-1251</p>")
	assert.Contains(t, got, `<p class="alert alert-warning">Product or quantity column not found</p>`)
}

func TestLoadBanner_Workbook(t *testing.T) {
	got := render(t, LoadBanner(&core.LoadResult{FileName: "march.xlsx", Rows: 2}))

	assert.Contains(t, got, "<p>Loaded <strong>march.xlsx</strong>: 2 rows</p>")
	assert.NotContains(t, got, "separated")
}

func TestSummaryTable(t *testing.T) {
	tests := []struct {
		name string
		sum  core.Summary
		want []string
	}{
		{
			name: "rows",
			sum: core.Summary{
				Rows:           []core.AggregateRow{{Product: "Ябълки", TotalQuantity: 12}},
				RowCount:       1,
				TotalRows:      3,
				TotalQuantity:  12,
				UniqueProducts: 1,
			},
			want: []string{
				"<span>Rows: 1 of 3</span>",
				"<span>Total quantity: 12</span>",
				`<tr><td>Ябълки</td><td class="num">12</td></tr>`,
			},
		},
		{
			name: "empty",
			sum:  core.Summary{TotalRows: 3},
			want: []string{"Rows: 0 of 3", "No rows match the current filters."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, SummaryTable(tt.sum))
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestSuggestionsPanel(t *testing.T) {
	sug := core.Suggestions{
		ReferenceDate: date(2024, 3, 7),
		WindowDays:    30,
		FastMovers: []core.FastMover{
			{Product: "Ябълки", WindowQuantity: 12, PerDayRate: 0.4, SuggestedMinStock: 6},
		},
		Issues: core.IssueReport{
			Issues: []core.Issue{{Reason: core.IssueMissingProduct, Product: core.UnnamedProduct, Row: 4}},
			Total:  1,
		},
	}

	got := render(t, SuggestionsPanel(sug))

	assert.Contains(t, got, "Fast movers (last 30 days to 2024-03-07)")
	assert.Contains(t, got, `<td class="num">0.40</td><td class="num">6</td>`)
	assert.Contains(t, got, "Issues (1)")
	assert.Contains(t, got, `<td class="num">4</td><td>Missing product name</td>`)
}

func TestIssuesTable_Omitted(t *testing.T) {
	report := core.IssueReport{
		Issues:  []core.Issue{{Reason: core.IssueMissingDate, Product: "A", Quantity: 1, Row: 2}},
		Total:   11,
		Omitted: 10,
	}

	got := render(t, IssuesTable(report))

	assert.Contains(t, got, "Issues (11)")
	assert.Contains(t, got, `<p class="omitted">10 more not shown.`)
}

func TestIssuesTable_Empty(t *testing.T) {
	got := render(t, IssuesTable(core.IssueReport{}))

	assert.Equal(t, `<section class="issues"><h3>Issues (0)</h3><p class="empty">No issues found.</p></section>`, got)
}

func TestOptionsSelect(t *testing.T) {
	got := render(t, OptionsSelect([]string{"A", `B"&`}, `B"&`))

	assert.Equal(t, `<option value="">All</option><option value="A">A</option><option value="B&#34;&amp;" selected>B&#34;&amp;</option>`, got)
}
