package service

import (
	"context"
	"fmt"
	"time"

	"mediamarkt/crawler/internal/client"
	"mediamarkt/crawler/internal/domain"
	"mediamarkt/crawler/internal/domain/task"
	"mediamarkt/crawler/internal/export"
	"mediamarkt/crawler/internal/flatten"
	"mediamarkt/crawler/internal/queue"
	"mediamarkt/crawler/internal/report"
	"mediamarkt/crawler/internal/traversal"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// IndexParser reads the brand index page.
type IndexParser interface {
	ExtractLetterAnchors(doc *goquery.Document) []string
	ExtractBrands(doc *goquery.Document, letter string) []domain.BrandEntry
}

type Options struct {
	RunID         string
	IndexURL      string
	Letters       []string // Explicit anchors; empty means the first LetterLimit anchors
	LetterLimit   int      // 0 means every anchor
	Scope         traversal.Scope
	NewVisitedSet traversal.VisitedSetFactory
	ReportPath    string
}

// Result is the outcome of one crawl.
type Result struct {
	Letters  []string
	Brands   []domain.BrandEntry
	Rows     []domain.Row
	Failures []domain.Failure
	Stats    traversal.Stats
}

type Service struct {
	client    client.SiteClient
	parser    IndexParser
	traverser *traversal.Traverser
	exporter  export.Exporter
	publisher queue.Publisher
	opts      Options
}

// NewService wires a crawl. publisher may be nil, failures are then only logged.
func NewService(
	siteClient client.SiteClient,
	parser IndexParser,
	traverser *traversal.Traverser,
	exporter export.Exporter,
	publisher queue.Publisher,
	opts Options,
) *Service {
	if opts.Scope == "" {
		opts.Scope = traversal.ScopeGlobal
	}

	return &Service{
		client:    siteClient,
		parser:    parser,
		traverser: traverser,
		exporter:  exporter,
		publisher: publisher,
		opts:      opts,
	}
}

// Run crawls, exports and writes the optional report. A returned error means
// the run did not deliver its output.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	startedAt := time.Now()

	result, err := s.Crawl(ctx)
	if err != nil {
		return nil, err
	}

	log.Infof("📦 Flattened %d rows from %d brands", len(result.Rows), len(result.Brands))

	if err := s.exporter.Write(ctx, domain.Header, result.Rows); err != nil {
		return result, fmt.Errorf("failed to export rows: %w", err)
	}

	if s.opts.ReportPath != "" {
		summary := &report.RunSummary{
			RunID:      s.opts.RunID,
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
			Letters:    result.Letters,
			Brands:     report.Summarize(result.Brands),
			Rows:       len(result.Rows),
			Fetched:    result.Stats.Fetched,
			Cycles:     result.Stats.Cycles,
			Failures:   result.Failures,
		}
		if multi, ok := s.exporter.(*export.MultiExporter); ok {
			summary.Sinks = multi.Sinks()
		} else {
			summary.Sinks = []string{s.exporter.Name()}
		}

		if err := report.WriteFile(s.opts.ReportPath, summary); err != nil {
			log.Warnf("⚠️ Failed to write run report: %v", err)
		} else {
			log.Infof("📝 Run report written to %s", s.opts.ReportPath)
		}
	}

	log.Infof("✅ Scraping complete: %d rows, %d failures", len(result.Rows), len(result.Failures))
	return result, nil
}

// Crawl walks the brand index and every selected brand and returns the
// flattened rows. Only a broken brand index or cancellation is an error;
// failures below that are collected in the result.
func (s *Service) Crawl(ctx context.Context) (*Result, error) {
	doc, err := s.client.Fetch(ctx, s.opts.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch brand index: %w", err)
	}

	anchors := s.parser.ExtractLetterAnchors(doc)
	letters := s.selectLetters(anchors)
	if len(letters) == 0 {
		return nil, domain.ErrNoLetters
	}

	tc := traversal.NewContext(s.opts.Scope, s.opts.NewVisitedSet, s.publishFailure(ctx))

	var brands []domain.BrandEntry
	for _, letter := range letters {
		log.Infof("🔤 Scraping brands for letter: %s", letter)

		letterBrands := s.parser.ExtractBrands(doc, letter)
		for i := range letterBrands {
			brand := &letterBrands[i]
			log.Infof("  🏷️ Scraping brand: %s", brand.Name)

			if err := s.traverser.CrawlBrand(ctx, tc, brand); err != nil {
				return nil, fmt.Errorf("crawl interrupted at brand %s: %w", brand.Name, err)
			}
		}

		brands = append(brands, letterBrands...)
	}

	stats := tc.Stats()
	log.Infof("🔎 Fetched %d pages, skipped %d loops, %d failures", stats.Fetched, stats.Cycles, stats.Failures)

	return &Result{
		Letters:  letters,
		Brands:   brands,
		Rows:     flatten.Flatten(brands),
		Failures: tc.Failures(),
		Stats:    stats,
	}, nil
}

func (s *Service) selectLetters(anchors []string) []string {
	if len(s.opts.Letters) > 0 {
		return s.opts.Letters
	}
	if s.opts.LetterLimit > 0 && len(anchors) > s.opts.LetterLimit {
		return anchors[:s.opts.LetterLimit]
	}
	return anchors
}

func (s *Service) publishFailure(ctx context.Context) func(domain.Failure) {
	if s.publisher == nil {
		return nil
	}

	return func(failure domain.Failure) {
		_, err := s.publisher.AddTask(ctx, &task.NodeFailureTask{
			RunID:      s.opts.RunID,
			Component:  failure.Component,
			Identifier: failure.Identifier,
			Name:       failure.Name,
			Error:      failure.Message(),
		})
		if err != nil {
			log.Errorf("❌ Failed to publish failure for %s: %v", failure.Identifier, err)
		}
	}
}
