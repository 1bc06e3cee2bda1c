package export

import (
	"context"
	"testing"

	"mediamarkt/crawler/internal/domain"
	"mediamarkt/crawler/internal/domain/task"
)

type batchRecorder struct {
	batches [][]task.Task
}

func (p *batchRecorder) AddTask(ctx context.Context, t task.Task) (string, error) {
	return "", p.AddTasks(ctx, []task.Task{t})
}

func (p *batchRecorder) AddTasks(_ context.Context, tasks []task.Task) error {
	p.batches = append(p.batches, append([]task.Task(nil), tasks...))
	return nil
}

func TestStreamExporterBatches(t *testing.T) {
	t.Parallel()

	rows := make([]domain.Row, 1200)
	for i := range rows {
		rows[i].ProductTitle = "p"
	}

	publisher := &batchRecorder{}
	if err := NewStreamExporter(publisher, "run-1").Write(context.Background(), domain.Header, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(publisher.batches))
	}
	if n := len(publisher.batches[2]); n != 200 {
		t.Errorf("expected a last batch of 200, got %d", n)
	}

	next := 0
	for _, batch := range publisher.batches {
		for _, tk := range batch {
			rowTask := tk.(*task.RowTask)
			if rowTask.Index != next || rowTask.RunID != "run-1" {
				t.Fatalf("expected index %d of run-1, got %+v", next, rowTask)
			}
			next++
		}
	}
}
