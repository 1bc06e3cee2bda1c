package export

import (
	"fmt"
	"strings"

	"mediamarkt/crawler/internal/domain"
)

// replaceTableStatements creates the table if needed and empties it, so a
// write always leaves exactly the given rows behind.
func replaceTableStatements(table string, header []string, quote func(string) string) []string {
	definitions := make([]string, len(header))
	for i, name := range header {
		definitions[i] = quote(name) + " TEXT NOT NULL DEFAULT ''"
	}

	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(table), strings.Join(definitions, ", ")),
		fmt.Sprintf("DELETE FROM %s", quote(table)),
	}
}

func rowValues(rows []domain.Row) [][]any {
	values := make([][]any, len(rows))
	for i, row := range rows {
		fields := row.Values()
		values[i] = make([]any, len(fields))
		for j, field := range fields {
			values[i][j] = field
		}
	}
	return values
}
