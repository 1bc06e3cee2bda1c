package task

import "mediamarkt/crawler/internal/domain"

type RowTask struct {
	RunID string     `json:"run_id"`
	Index int        `json:"index"` // Position in the flattened dataset
	Row   domain.Row `json:"row"`
}

func (t *RowTask) TaskType() string {
	return "RowTask"
}

func (t *RowTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
