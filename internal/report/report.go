package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mediamarkt/crawler/internal/domain"

	"github.com/nao1215/markdown"
)

// RunSummary is what one crawl produced.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Letters    []string
	Brands     []BrandSummary
	Rows       int
	Fetched    int64
	Cycles     int64
	Failures   []domain.Failure
	Sinks      []string
}

type BrandSummary struct {
	Name       string
	Link       string
	Categories int
	Rows       int
}

// Summarize builds the per-brand part of a summary from the crawled tree.
func Summarize(brands []domain.BrandEntry) []BrandSummary {
	summaries := make([]BrandSummary, 0, len(brands))
	for i := range brands {
		summaries = append(summaries, BrandSummary{
			Name:       brands[i].Name,
			Link:       brands[i].RootLink,
			Categories: len(brands[i].Categories),
			Rows:       brands[i].ProductCount(),
		})
	}
	return summaries
}

// MarkdownWriter renders a RunSummary as a markdown document.
type MarkdownWriter struct {
	output io.Writer
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// WriteFile renders summary into path, creating parent directories.
func WriteFile(path string, summary *RunSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := NewMarkdownWriter(f).Write(summary); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

func (w *MarkdownWriter) Write(summary *RunSummary) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Catalog Crawl Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + summary.RunID + "`"},
			{"Started", summary.StartedAt.Format(time.RFC3339)},
			{"Duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second).String()},
			{"Letters", fmt.Sprint(summary.Letters)},
			{"Pages fetched", strconv.FormatInt(summary.Fetched, 10)},
			{"Loops skipped", strconv.FormatInt(summary.Cycles, 10)},
			{"Rows", strconv.Itoa(summary.Rows)},
			{"Failures", strconv.Itoa(len(summary.Failures))},
		},
	})
	md.PlainText("")

	w.writeBrands(md, summary)
	w.writeFailures(md, summary)

	if len(summary.Sinks) > 0 {
		md.H2("Exported To")
		md.PlainText("")
		md.BulletList(summary.Sinks...)
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (w *MarkdownWriter) writeBrands(md *markdown.Markdown, summary *RunSummary) {
	md.H2("Brands")
	md.PlainText("")

	if len(summary.Brands) == 0 {
		md.PlainText("No brands crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Brands))
	for _, brand := range summary.Brands {
		rows = append(rows, []string{
			brand.Name,
			brand.Link,
			strconv.Itoa(brand.Categories),
			strconv.Itoa(brand.Rows),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Brand", "Link", "Categories", "Rows"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *RunSummary) {
	md.H2("Failures")
	md.PlainText("")

	if len(summary.Failures) == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Failures))
	for _, failure := range summary.Failures {
		rows = append(rows, []string{failure.Component, failure.Name, failure.Identifier, failure.Message()})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Component", "Name", "Link", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}
