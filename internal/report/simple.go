package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitecrawler/internal/model"
)

// ruleWidth is the width of section rules in text output.
const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose adds timing details and the run ID.
	verbose bool

	// printStore dumps every store entry with its outbound links.
	printStore bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithPrintStore makes the writer dump the final visited store.
func WithPrintStore(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printStore = enabled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder
	summary := model.NewSummary(report)

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, summary)
	w.writeFailures(&sb, report.Failures)
	w.writeErrors(&sb, report.Errors)
	if w.printStore {
		w.writeStore(&sb, report.Pages)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs only the summary section.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder
	w.writeSummary(&sb, summary)
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                        SITECRAWLER REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed:       %s\n", report.Seed))
	sb.WriteString(fmt.Sprintf("Scope:      %s\n", report.Scope()))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Workers:    %d\n", report.Workers))
	if w.verbose {
		sb.WriteString(fmt.Sprintf("Run ID:     %s\n", report.RunID))
		sb.WriteString(fmt.Sprintf("Delay:      %s\n", report.Delay))
		sb.WriteString(fmt.Sprintf("Duration:   %s\n", report.Duration().Round(time.Millisecond)))
	}
	sb.WriteString(fmt.Sprintf("Status:     %s\n", titleCase(status(report))))
	sb.WriteString("\n")
}

// writeSection writes a section title between rules.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(strings.ToUpper(title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// writeSummary writes the page and link counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.Summary) {
	writeSection(sb, "summary")

	sb.WriteString(fmt.Sprintf("  PAGES:     %d\n", summary.Pages))
	sb.WriteString(fmt.Sprintf("  VISITED:   %d\n", summary.Visited))
	sb.WriteString(fmt.Sprintf("  UNVISITED: %d\n", summary.Unvisited))
	sb.WriteString(fmt.Sprintf("  LINKS:     %d\n", summary.Links))
	sb.WriteString(fmt.Sprintf("  FAILURES:  %d\n", summary.Failures))
	sb.WriteString("\n")

	if len(summary.TopLinked) == 0 {
		return
	}
	sb.WriteString("  Most linked:\n")
	for _, lc := range summary.TopLinked {
		sb.WriteString(fmt.Sprintf("    %4d  %s\n", lc.Count, lc.URL))
	}
	sb.WriteString("\n")
}

// writeFailures writes pages whose fetch failed.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, failures []model.Failure) {
	if len(failures) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "failures")

	if len(failures) == 0 {
		sb.WriteString("  No failed fetches\n\n")
		return
	}
	for _, f := range failures {
		if f.StatusCode != 0 {
			sb.WriteString(fmt.Sprintf("  [%d] %s\n", f.StatusCode, f.URL))
		} else {
			sb.WriteString(fmt.Sprintf("  [!] %s\n", f.URL))
		}
		if w.verbose {
			sb.WriteString(fmt.Sprintf("        %s\n", f.Error))
		}
	}
	sb.WriteString("\n")
}

// writeErrors writes run-level errors.
func (w *SimpleWriter) writeErrors(sb *strings.Builder, errs []string) {
	if len(errs) == 0 {
		return
	}

	writeSection(sb, "errors")
	for _, e := range errs {
		sb.WriteString(fmt.Sprintf("  * %s\n", e))
	}
	sb.WriteString("\n")
}

// writeStore dumps every store entry in key order.
func (w *SimpleWriter) writeStore(sb *strings.Builder, pages []model.PageRecord) {
	writeSection(sb, "visited store")

	if len(pages) == 0 {
		sb.WriteString("  Store is empty\n\n")
		return
	}
	for _, p := range pages {
		mark := " "
		if p.Visited {
			mark = "x"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s (%d links)\n", mark, p.URL, p.OutboundCount()))
		for _, link := range p.Outbound {
			sb.WriteString(fmt.Sprintf("        -> %s\n", link))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sitecrawler\n")
	sb.WriteString("https://github.com/nao1215/sitecrawler\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
