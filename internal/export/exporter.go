package export

import (
	"context"
	"errors"

	"mediamarkt/crawler/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Exporter persists the flattened dataset. It writes the given rows and
// header and nothing else.
type Exporter interface {
	Name() string
	Write(ctx context.Context, header []string, rows []domain.Row) error
}

// MultiExporter writes to every sink in order. Sinks after a failed one still
// run, but any failure makes the whole export fail.
type MultiExporter struct {
	sinks []Exporter
}

func NewMultiExporter(sinks ...Exporter) *MultiExporter {
	return &MultiExporter{sinks: sinks}
}

func (m *MultiExporter) Name() string { return "multi" }

func (m *MultiExporter) Sinks() []string {
	names := make([]string, 0, len(m.sinks))
	for _, sink := range m.sinks {
		names = append(names, sink.Name())
	}
	return names
}

func (m *MultiExporter) Write(ctx context.Context, header []string, rows []domain.Row) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Write(ctx, header, rows); err != nil {
			log.Errorf("❌ Export to %s failed: %v", sink.Name(), err)
			errs = append(errs, &domain.ExportError{Sink: sink.Name(), Err: err})
			continue
		}
		log.Infof("✅ Exported %d rows to %s", len(rows), sink.Name())
	}
	return errors.Join(errs...)
}
