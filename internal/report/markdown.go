package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitecrawler/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter

	// maxPages bounds the page table. Zero lists every page.
	maxPages int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMaxPages limits the number of rows in the page table.
func WithMaxPages(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.maxPages = n
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := model.NewSummary(report)

	w.writeHeader(md, report)
	w.writeSummary(md, summary)
	w.writeFailures(md, report.Failures)
	w.writeErrors(md, report.Errors)
	w.writePages(md, report.Pages)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs only the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeSummary(md, summary)
	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Sitecrawler Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + report.Seed + "`"},
			{"Scope", "`" + report.Scope() + "`"},
			{"Run ID", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Workers", strconv.Itoa(report.Workers)},
			{"Delay", report.Delay.String()},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status with an indicator.
func statusText(report *model.CrawlReport) string {
	s := titleCase(status(report))
	switch status(report) {
	case statusCanceled:
		return "⚠️ " + s + " (partial results)"
	case statusFailed:
		return "❌ " + s
	default:
		return "✅ " + s
	}
}

// writeSummary writes the count table, chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages", strconv.Itoa(summary.Pages)},
			{"Visited", strconv.Itoa(summary.Visited)},
			{"Unvisited", strconv.Itoa(summary.Unvisited)},
			{"Links", strconv.Itoa(summary.Links)},
			{"Failures", strconv.Itoa(summary.Failures)},
		},
	})
	md.PlainText("")

	if summary.Pages > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)

	if len(summary.TopLinked) > 0 {
		md.PlainText("### Most Linked")
		md.PlainText("")
		rows := make([][]string, len(summary.TopLinked))
		for i, lc := range summary.TopLinked {
			rows[i] = []string{lc.URL, strconv.Itoa(lc.Count)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Inbound Links"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writePieChart writes a mermaid pie chart of store entry states.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Store Entries"),
		piechart.WithShowData(true),
	)

	if summary.Visited > 0 {
		chart.LabelAndIntValue("Visited", uint64(summary.Visited))
	}
	// Failed entries are a subset of the unvisited ones.
	failed := min(summary.Failures, summary.Unvisited)
	if failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(failed))
	}
	if rest := summary.Unvisited - failed; rest > 0 {
		chart.LabelAndIntValue("Not fetched", uint64(rest))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.Canceled:
		md.Cautionf("The crawl was interrupted before the frontier drained. %d page(s) were fetched.", summary.Visited)
	case summary.Failures > 0:
		md.Warningf("%d page(s) could not be fetched.", summary.Failures)
	case summary.Visited == 0:
		md.Note("No page was fetched.")
	default:
		md.Tip("Every page reached within scope was fetched.")
	}
	md.PlainText("")
}

// writeFailures writes the failed fetches.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, failures []model.Failure) {
	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(failures))
	for i, f := range failures {
		code := "-"
		if f.StatusCode != 0 {
			code = strconv.Itoa(f.StatusCode)
		}
		rows[i] = []string{f.URL, code, truncateString(f.Error, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeErrors writes run-level errors.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, errs []string) {
	if len(errs) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")
	md.BulletList(errs...)
	md.PlainText("")
}

// writePages writes one table row per store entry.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, pages []model.PageRecord) {
	md.H2("Pages")
	md.PlainText("")

	if len(pages) == 0 {
		md.PlainText("No pages recorded.")
		md.PlainText("")
		return
	}

	shown := pages
	if w.maxPages > 0 && len(shown) > w.maxPages {
		shown = shown[:w.maxPages]
	}

	rows := make([][]string, len(shown))
	for i, p := range shown {
		visited := "no"
		if p.Visited {
			visited = "yes"
		}
		rows[i] = []string{
			truncateString(p.URL, 80),
			visited,
			strconv.Itoa(p.OutboundCount()),
			strconv.Itoa(len(p.UniqueOutbound())),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Visited", "Links", "Unique Links"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(shown) < len(pages) {
		md.PlainTextf("*%d more page(s) omitted.*", len(pages)-len(shown))
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitecrawler](https://github.com/nao1215/sitecrawler)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
