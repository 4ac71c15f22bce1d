package protocol

// Streaming event types, emitted in this order and no other: one Created, one
// InProgress, then exactly one Completed after the upstream stream is drained.
const (
	EventResponseCreated    = "response.created"
	EventResponseInProgress = "response.in_progress"
	EventResponseCompleted  = "response.completed"
)

// StreamEvent is a single Responses API streaming event. Response is nil for
// the bare in-progress marker.
type StreamEvent struct {
	Type     string             `json:"type"`
	Response *ResponsesResponse `json:"response,omitempty"`
}
