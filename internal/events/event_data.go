package events

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// StrategyEvaluationRequestedData asks the engine to evaluate one strategy file.
type StrategyEvaluationRequestedData struct {
	StrategyID    string `json:"strategy_id"`
	ConfigPath    string `json:"strategy_config_path"`
	CorrelationID string `json:"correlation_id"`
}

// EventType returns the event type for StrategyEvaluationRequestedData
func (d *StrategyEvaluationRequestedData) EventType() EventType {
	return StrategyEvaluationRequested
}

// StrategyEvaluatedData reports a completed evaluation and its trace outcome.
type StrategyEvaluatedData struct {
	StrategyID    string `json:"strategy_id"`
	CorrelationID string `json:"correlation_id"`
	TraceID       string `json:"trace_id"`
	Success       bool   `json:"success"`
	ErrorMessage  string `json:"error_message,omitempty"`
	Steps         int    `json:"steps"`
}

// EventType returns the event type for StrategyEvaluatedData
func (d *StrategyEvaluatedData) EventType() EventType {
	return StrategyEvaluated
}

// AllocationProducedData carries the normalized target weights of a
// successful evaluation. Weights are decimal strings keyed by symbol.
type AllocationProducedData struct {
	StrategyID    string            `json:"strategy_id"`
	CorrelationID string            `json:"correlation_id"`
	AsOf          string            `json:"as_of"`
	TargetWeights map[string]string `json:"target_weights"`
}

// EventType returns the event type for AllocationProducedData
func (d *AllocationProducedData) EventType() EventType {
	return AllocationProduced
}

// EvaluationFailedData reports a failed evaluation with its error kind.
type EvaluationFailedData struct {
	StrategyID    string `json:"strategy_id"`
	CorrelationID string `json:"correlation_id"`
	ErrorKind     string `json:"error_kind"` // parse, evaluation, engine
	ErrorMessage  string `json:"error_message"`
}

// EventType returns the event type for EvaluationFailedData
func (d *EvaluationFailedData) EventType() EventType {
	return EvaluationFailed
}
