package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mediamarkt/crawler/internal/domain"
)

func sampleRows() []domain.Row {
	return []domain.Row{
		{
			BrandName:    "Acme",
			CategoryName: "TV",
			ProductTitle: `55" OLED, schwarz`,
			Price:        "1.299,-",
			Details:      `{"Farbe": "Schwarz", "Größe": "55\""}`,
		},
		{
			BrandName:    "Acme",
			ProductTitle: "Fernbedienung\nmit Zeilenumbruch",
			Details:      "{}",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, domain.Header, sampleRows()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], domain.Header) {
		t.Errorf("unexpected header: %v", records[0])
	}
	for i, row := range sampleRows() {
		if !reflect.DeepEqual(records[i+1], row.Values()) {
			t.Errorf("row %d did not survive quoting:\n got %q\nwant %q", i, records[i+1], row.Values())
		}
	}
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, domain.Header, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 1 || len(records[0]) != 14 {
		t.Errorf("expected a single 14 column header, got %v", records)
	}
}

func TestCSVExporterWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "rows.csv")
	exporter := NewCSVExporter(path)

	if err := exporter.Write(context.Background(), domain.Header, sampleRows()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
}

func TestCSVExporterOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rows.csv")
	exporter := NewCSVExporter(path)

	if err := exporter.Write(context.Background(), domain.Header, sampleRows()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := exporter.Write(context.Background(), domain.Header, sampleRows()[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected the second write to replace the first, got %d records", len(records))
	}
}
