package export

import (
	"context"
	"fmt"

	"mediamarkt/crawler/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoBatchSize = 1000

// MongoExporter inserts one document per row, fields named after the header.
type MongoExporter struct {
	collection *mongo.Collection
	runID      string
}

func NewMongoExporter(collection *mongo.Collection, runID string) *MongoExporter {
	return &MongoExporter{collection: collection, runID: runID}
}

func (e *MongoExporter) Name() string { return "mongodb:" + e.collection.Name() }

func (e *MongoExporter) Write(ctx context.Context, header []string, rows []domain.Row) error {
	opts := options.InsertMany().SetOrdered(true)

	for start := 0; start < len(rows); start += mongoBatchSize {
		end := min(start+mongoBatchSize, len(rows))

		docs := make([]interface{}, 0, end-start)
		for _, row := range rows[start:end] {
			docs = append(docs, rowDocument(header, row, e.runID))
		}

		if _, err := e.collection.InsertMany(ctx, docs, opts); err != nil {
			return fmt.Errorf("failed to insert rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func rowDocument(header []string, row domain.Row, runID string) bson.D {
	values := row.Values()
	doc := make(bson.D, 0, len(header)+1)
	doc = append(doc, bson.E{Key: "_run_id", Value: runID})
	for i, name := range header {
		doc = append(doc, bson.E{Key: name, Value: values[i]})
	}
	return doc
}
