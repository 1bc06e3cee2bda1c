package export

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"mediamarkt/crawler/internal/domain"
)

type recordingSink struct {
	name string
	err  error
	rows int
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, _ []string, rows []domain.Row) error {
	s.rows = len(rows)
	return s.err
}

func TestMultiExporter(t *testing.T) {
	t.Parallel()

	t.Run("all sinks succeed", func(t *testing.T) {
		t.Parallel()

		a, b := &recordingSink{name: "a"}, &recordingSink{name: "b"}
		multi := NewMultiExporter(a, b)

		if err := multi.Write(context.Background(), domain.Header, sampleRows()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.rows != 2 || b.rows != 2 {
			t.Errorf("expected both sinks to receive 2 rows, got %d and %d", a.rows, b.rows)
		}
		if got := multi.Sinks(); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("unexpected sink names: %v", got)
		}
	})

	t.Run("a failing sink does not stop the rest", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("disk full")
		a, b := &recordingSink{name: "a", err: boom}, &recordingSink{name: "b"}

		err := NewMultiExporter(a, b).Write(context.Background(), domain.Header, sampleRows())
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped sink error, got %v", err)
		}

		var exportErr *domain.ExportError
		if !errors.As(err, &exportErr) || exportErr.Sink != "a" {
			t.Errorf("expected ExportError for sink a, got %v", err)
		}
		if b.rows != 2 {
			t.Error("expected the second sink to still be written")
		}
	})
}
