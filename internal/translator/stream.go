package translator

import (
	"io"
	"strings"

	"github.com/router-for-me/ResponsesProxy/internal/protocol"
)

// ChunkStream is the upstream token-delta stream consumed by a
// ResponseStream. Recv returns io.EOF once the stream is exhausted.
type ChunkStream interface {
	Recv() (*protocol.ChatChunk, error)
	Close() error
}

// stream translator states, advanced in fixed order.
const (
	streamStateCreated = iota
	streamStateInProgress
	streamStateStreaming
	streamStateDone
)

// ResponseStream reconstructs Responses API lifecycle events from a chat
// completions chunk stream. It is pull-driven: each Next call advances the
// state machine exactly one event, and the underlying stream is only read
// while producing the final completed event. The two lead events require no
// upstream data and are emitted immediately on the first two calls.
//
// The accumulation state (content buffer, usage counters) is owned by this
// struct and never shared; one ResponseStream serves exactly one request.
type ResponseStream struct {
	chunks     ChunkStream
	responseID string
	createdAt  int64
	model      string

	state   int
	content strings.Builder
	usage   protocol.ResponseUsage
}

// NewResponseStream wraps an upstream chunk stream. Creation performs no I/O.
func NewResponseStream(chunks ChunkStream, responseID string, createdAt int64, model string) *ResponseStream {
	return &ResponseStream{
		chunks:     chunks,
		responseID: responseID,
		createdAt:  createdAt,
		model:      model,
	}
}

// Next returns the next streaming event. After the completed event it returns
// io.EOF. An upstream failure mid-stream fails Next with that error; no
// terminal event is synthesized, so a sequence ending without
// response.completed marks an incomplete response.
func (s *ResponseStream) Next() (protocol.StreamEvent, error) {
	switch s.state {
	case streamStateCreated:
		s.state = streamStateInProgress
		return protocol.StreamEvent{
			Type:     protocol.EventResponseCreated,
			Response: s.snapshot(),
		}, nil
	case streamStateInProgress:
		s.state = streamStateStreaming
		return protocol.StreamEvent{Type: protocol.EventResponseInProgress}, nil
	case streamStateStreaming:
		return s.drain()
	default:
		return protocol.StreamEvent{}, io.EOF
	}
}

// drain consumes the upstream stream to exhaustion, accumulating content
// deltas in arrival order and letting the latest usage snapshot win, then
// produces the single completed event.
func (s *ResponseStream) drain() (protocol.StreamEvent, error) {
	for {
		chunk, err := s.chunks.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.state = streamStateDone
			return protocol.StreamEvent{}, err
		}
		if delta := chunk.ContentDelta(); delta != "" {
			s.content.WriteString(delta)
		}
		if chunk.Usage != nil {
			s.usage.PromptTokens = chunk.Usage.PromptTokens
			s.usage.CompletionTokens = chunk.Usage.CompletionTokens
			s.usage.TotalTokens = chunk.Usage.TotalTokens
		}
	}

	s.state = streamStateDone
	final := &protocol.ResponsesResponse{
		ID:        s.responseID,
		Object:    protocol.ObjectResponse,
		CreatedAt: s.createdAt,
		Model:     s.model,
		Output: []protocol.OutputMessage{{
			Role:    "assistant",
			Content: s.content.String(),
		}},
		Status: protocol.StatusCompleted,
	}
	if s.usage.TotalTokens > 0 {
		usage := s.usage
		final.Usage = &usage
	}
	return protocol.StreamEvent{
		Type:     protocol.EventResponseCompleted,
		Response: final,
	}, nil
}

// snapshot builds the in-progress response carried by the created event:
// empty output, no usage.
func (s *ResponseStream) snapshot() *protocol.ResponsesResponse {
	return &protocol.ResponsesResponse{
		ID:        s.responseID,
		Object:    protocol.ObjectResponse,
		CreatedAt: s.createdAt,
		Model:     s.model,
		Output:    []protocol.OutputMessage{},
		Status:    protocol.StatusInProgress,
	}
}

// Close releases the underlying upstream stream. Callers that abandon the
// event sequence early must call Close so the remote connection is not
// leaked.
func (s *ResponseStream) Close() error {
	s.state = streamStateDone
	return s.chunks.Close()
}
