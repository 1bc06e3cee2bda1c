package task

type NodeFailureTask struct {
	RunID      string `json:"run_id"`
	Component  string `json:"component"`  // brand or category
	Identifier string `json:"identifier"` // Normalized link of the failed node
	Name       string `json:"name"`
	Error      string `json:"error"`
}

func (t *NodeFailureTask) TaskType() string {
	return "NodeFailureTask"
}

func (t *NodeFailureTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
