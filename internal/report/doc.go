// Package report renders crawl reports.
//
// Three formats are provided:
//   - SimpleWriter: plain text for the terminal, optionally dumping the
//     whole visited store
//   - JSONWriter: structured JSON for other tools
//   - MarkdownWriter: Markdown with tables and a mermaid chart
//
// Writers implement the Writer interface so they can be combined with
// MultiWriter.
package report
