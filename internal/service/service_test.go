package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mediamarkt/crawler/internal/client"
	"mediamarkt/crawler/internal/config"
	"mediamarkt/crawler/internal/domain"
	"mediamarkt/crawler/internal/domain/task"
	"mediamarkt/crawler/internal/queue"
	"mediamarkt/crawler/internal/traversal"
)

func categoryPage(tiles ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, t := range tiles {
		name, href, _ := strings.Cut(t, "=")
		fmt.Fprintf(&sb, `<div data-test="brand-category"><a href="%s"><p data-test="mms-brand-category-tile-link-text">%s</p></a></div>`, href, name)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func productPage(titles ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, title := range titles {
		fmt.Fprintf(&sb, `<article data-test="mms-product-card"><p data-test="product-title">%s</p>`+
			`<dl><dt><p>Farbe</p></dt><dd><p>Schwarz</p></dd></dl></article>`, title)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

const brandIndex = `<html><body>
<div data-test="mms-search-glossary-anchors">
  <a href="#A" aria-label="A">A</a>
  <a href="#B" aria-label="B">B</a>
</div>
<div id="glossary-row-A"><ul>
  <li><a href="/brand/acme">Acme</a></li>
  <li><a href="/brand/beta">Beta</a></li>
</ul></div>
<div id="glossary-row-B"><ul>
  <li><a href="/brand/bolt">Bolt</a></li>
</ul></div>
</body></html>`

type shop struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newShop(t *testing.T, index string) *shop {
	t.Helper()

	pages := map[string]string{
		"/de/brand":           index,
		"/brand/acme":         categoryPage("TV=/brand/acme/tv", "Audio=/brand/acme/audio"),
		"/brand/acme/tv":      categoryPage("Zurück=/brand/acme", "OLED=/brand/acme/tv/oled"),
		"/brand/acme/tv/oled": productPage("X1", "X2"),
		"/brand/beta":         productPage("B1"),
		"/brand/bolt":         productPage("never"),
	}

	s := &shop{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		if r.URL.Path == "/brand/acme/audio" {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		html, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *shop) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

type capturingExporter struct {
	err    error
	header []string
	rows   []domain.Row
}

func (e *capturingExporter) Name() string { return "capture" }

func (e *capturingExporter) Write(_ context.Context, header []string, rows []domain.Row) error {
	e.header = header
	e.rows = rows
	return e.err
}

type capturingPublisher struct {
	mu    sync.Mutex
	tasks []task.Task
}

func (p *capturingPublisher) AddTask(_ context.Context, t task.Task) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, t)
	return fmt.Sprintf("0-%d", len(p.tasks)), nil
}

func (p *capturingPublisher) AddTasks(ctx context.Context, tasks []task.Task) error {
	for _, t := range tasks {
		if _, err := p.AddTask(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func newService(s *shop, exporter *capturingExporter, publisher queue.Publisher, opts Options) *Service {
	cfg := config.Default()
	cfg.Site.BaseURL = s.URL
	cfg.Site.MaxRetries = 0
	cfg.Site.PolitenessDelay = 0
	cfg.Site.MaxRequestsPerSecond = 0

	siteClient := client.NewSiteClient(cfg.Site, nil)
	parser := client.NewCatalogParser(s.URL, cfg.Selectors, cfg.Crawl.ReturnMarkers, cfg.Crawl.ReturnMarkerMode)
	traverser := traversal.New(siteClient, parser, traversal.Options{})

	opts.IndexURL = cfg.Site.BrandIndexURL()
	return NewService(siteClient, parser, traverser, exporter, publisher, opts)
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	s := newShop(t, brandIndex)
	exporter := &capturingExporter{}
	publisher := &capturingPublisher{}
	reportPath := filepath.Join(t.TempDir(), "report.md")

	svc := newService(s, exporter, publisher, Options{
		RunID:       "run-1",
		LetterLimit: 1,
		ReportPath:  reportPath,
	})

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Join(result.Letters, ",") != "A" {
		t.Errorf("expected only the first letter, got %v", result.Letters)
	}
	if len(result.Brands) != 2 {
		t.Fatalf("expected 2 brands, got %d", len(result.Brands))
	}
	if s.count("/brand/bolt") != 0 {
		t.Error("expected brands of unselected letters not to be fetched")
	}
	if s.count("/brand/acme") != 1 {
		t.Errorf("expected the brand page fetched once despite the return tile, got %d", s.count("/brand/acme"))
	}

	if len(exporter.header) != 14 {
		t.Errorf("expected the 14 column header, got %v", exporter.header)
	}

	var got []string
	for _, row := range exporter.rows {
		got = append(got, row.BrandName+"/"+row.CategoryName+"/"+row.SubcategoryName+"/"+row.ProductTitle)
	}
	want := []string{"Acme/TV/OLED/X1", "Acme/TV/OLED/X2", "Beta///B1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected rows %v, got %v", want, got)
	}
	if exporter.rows[0].Details != `{"Farbe": "Schwarz"}` {
		t.Errorf("unexpected details %q", exporter.rows[0].Details)
	}

	if len(result.Failures) != 1 || result.Failures[0].Name != "Audio" {
		t.Fatalf("expected the Audio failure, got %v", result.Failures)
	}
	var fetchErr *domain.FetchError
	if !errors.As(result.Failures[0].Err, &fetchErr) || fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected a 503 fetch error, got %v", result.Failures[0].Err)
	}

	if len(publisher.tasks) != 1 {
		t.Fatalf("expected 1 published failure, got %d", len(publisher.tasks))
	}
	failureTask, ok := publisher.tasks[0].(*task.NodeFailureTask)
	if !ok || failureTask.RunID != "run-1" || failureTask.Name != "Audio" {
		t.Errorf("unexpected published task: %+v", publisher.tasks[0])
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("expected a report: %v", err)
	}
	if !strings.Contains(string(data), "Audio") {
		t.Error("expected the report to list the failure")
	}
}

func TestCrawlExplicitLetters(t *testing.T) {
	t.Parallel()

	s := newShop(t, brandIndex)
	svc := newService(s, &capturingExporter{}, nil, Options{Letters: []string{"B"}})

	result, err := svc.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Brands) != 1 || result.Brands[0].Name != "Bolt" {
		t.Fatalf("expected only Bolt, got %+v", result.Brands)
	}
	if len(result.Rows) != 1 || result.Rows[0].ProductTitle != "never" {
		t.Errorf("unexpected rows %+v", result.Rows)
	}
}

func TestCrawlAllLetters(t *testing.T) {
	t.Parallel()

	s := newShop(t, brandIndex)
	svc := newService(s, &capturingExporter{}, nil, Options{LetterLimit: 0})

	result, err := svc.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Letters) != 2 || len(result.Brands) != 3 {
		t.Errorf("expected 2 letters and 3 brands, got %v and %d", result.Letters, len(result.Brands))
	}
}

func TestCrawlFatalErrors(t *testing.T) {
	t.Parallel()

	t.Run("no letters", func(t *testing.T) {
		t.Parallel()

		s := newShop(t, "<html><body>nothing here</body></html>")
		_, err := newService(s, &capturingExporter{}, nil, Options{}).Crawl(context.Background())
		if !errors.Is(err, domain.ErrNoLetters) {
			t.Errorf("expected ErrNoLetters, got %v", err)
		}
	})

	t.Run("unreachable index", func(t *testing.T) {
		t.Parallel()

		s := newShop(t, brandIndex)
		svc := newService(s, &capturingExporter{}, nil, Options{})
		svc.opts.IndexURL = s.URL + "/missing"

		_, err := svc.Crawl(context.Background())
		var fetchErr *domain.FetchError
		if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected a 404 fetch error, got %v", err)
		}
	})

	t.Run("export failure", func(t *testing.T) {
		t.Parallel()

		s := newShop(t, brandIndex)
		boom := errors.New("sink down")
		_, err := newService(s, &capturingExporter{err: boom}, nil, Options{LetterLimit: 1}).Run(context.Background())
		if !errors.Is(err, boom) {
			t.Errorf("expected export error, got %v", err)
		}
	})
}
