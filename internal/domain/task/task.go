package task

import "encoding/json"

// Task is a message published to a stream named after its TaskType.
type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// DefaultTaskValue encodes a task as JSON.
func DefaultTaskValue(task any) ([]byte, error) {
	return json.Marshal(task)
}
