package export

import (
	"context"

	"mediamarkt/crawler/internal/domain"
	"mediamarkt/crawler/internal/domain/task"
	"mediamarkt/crawler/internal/queue"
)

const streamBatchSize = 500

// StreamExporter publishes every row as a RowTask, in dataset order.
type StreamExporter struct {
	publisher queue.Publisher
	runID     string
}

func NewStreamExporter(publisher queue.Publisher, runID string) *StreamExporter {
	return &StreamExporter{publisher: publisher, runID: runID}
}

func (e *StreamExporter) Name() string { return "redis-stream" }

func (e *StreamExporter) Write(ctx context.Context, _ []string, rows []domain.Row) error {
	batch := make([]task.Task, 0, streamBatchSize)
	for i, row := range rows {
		batch = append(batch, &task.RowTask{RunID: e.runID, Index: i, Row: row})
		if len(batch) == streamBatchSize {
			if err := e.publisher.AddTasks(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return e.publisher.AddTasks(ctx, batch)
}
