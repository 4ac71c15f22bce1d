package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/router-for-me/ResponsesProxy/internal/logging"
	"github.com/router-for-me/ResponsesProxy/internal/protocol"
	"github.com/router-for-me/ResponsesProxy/internal/translator"
)

type fakeBackend struct {
	chatResp    *protocol.ChatResponse
	chatErr     error
	streamErr   error
	chunks      []*protocol.ChatChunk
	lastRequest *protocol.ChatRequest
	streamCalls int
	callCalls   int
}

func (f *fakeBackend) CreateChatCompletion(_ context.Context, req *protocol.ChatRequest) (*protocol.ChatResponse, error) {
	f.callCalls++
	f.lastRequest = req
	return f.chatResp, f.chatErr
}

func (f *fakeBackend) CreateChatCompletionStream(_ context.Context, req *protocol.ChatRequest) (translator.ChunkStream, error) {
	f.streamCalls++
	f.lastRequest = req
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return &sliceChunkStream{chunks: f.chunks}, nil
}

type sliceChunkStream struct {
	chunks []*protocol.ChatChunk
	pos    int
}

func (s *sliceChunkStream) Recv() (*protocol.ChatChunk, error) {
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *sliceChunkStream) Close() error { return nil }

type recordingLogger struct {
	requests  map[string][]byte
	responses map[string][]byte
	failWith  error
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{requests: map[string][]byte{}, responses: map[string][]byte{}}
}

func (l *recordingLogger) LogRequest(id string, payload []byte) error {
	if l.failWith != nil {
		return l.failWith
	}
	l.requests[id] = payload
	return nil
}

func (l *recordingLogger) LogResponse(id string, payload []byte) error {
	if l.failWith != nil {
		return l.failWith
	}
	l.responses[id] = payload
	return nil
}

func (l *recordingLogger) IsEnabled() bool { return true }

func userRequest(stream bool) *protocol.ResponsesRequest {
	req := &protocol.ResponsesRequest{
		Model: "m",
		Input: []byte(`[{"role":"user","content":"Hi"}]`),
	}
	if stream {
		req.Stream = &stream
	}
	return req
}

func TestCreateResponseNonStreaming(t *testing.T) {
	backend := &fakeBackend{chatResp: &protocol.ChatResponse{
		Model:   "m",
		Choices: []protocol.ChatChoice{{Message: protocol.ChatMessage{Content: "Hello!"}}},
		Usage:   &protocol.ChatUsage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5},
	}}
	logger := newRecordingLogger()
	p := New(backend, logger)

	result, errResp := p.CreateResponse(context.Background(), userRequest(false))
	require.Nil(t, errResp)
	require.NotNil(t, result.Response)
	assert.Nil(t, result.Stream)

	resp := result.Response
	assert.True(t, strings.HasPrefix(resp.ID, "resp_"))
	assert.Equal(t, protocol.StatusCompleted, resp.Status)
	require.Len(t, resp.Output, 1)
	assert.Equal(t, "Hello!", resp.Output[0].Content)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(5), resp.Usage.TotalTokens)

	// Both collaborator notifications happened under the same id.
	assert.Contains(t, logger.requests, resp.ID)
	assert.Contains(t, logger.responses, resp.ID)
	assert.Equal(t, 1, backend.callCalls)
	assert.Zero(t, backend.streamCalls)
}

func TestCreateResponseStreamingDispatch(t *testing.T) {
	backend := &fakeBackend{chunks: []*protocol.ChatChunk{
		{Choices: []protocol.ChatChunkChoice{{Delta: protocol.ChatDelta{Content: "Hi"}}}},
	}}
	p := New(backend, nil)

	result, errResp := p.CreateResponse(context.Background(), userRequest(true))
	require.Nil(t, errResp)
	require.NotNil(t, result.Stream)
	assert.Nil(t, result.Response)
	assert.Equal(t, 1, backend.streamCalls)
	assert.Zero(t, backend.callCalls)
	require.NotNil(t, backend.lastRequest)
	assert.True(t, backend.lastRequest.Stream, "dispatch branches on the translated stream flag")

	created, err := result.Stream.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.EventResponseCreated, created.Type)
	assert.True(t, strings.HasPrefix(created.Response.ID, "resp_"))
}

func TestCreateResponseRemoteFailureBecomesProxyError(t *testing.T) {
	backend := &fakeBackend{chatErr: errors.New("upstream exploded")}
	p := New(backend, nil)

	result, errResp := p.CreateResponse(context.Background(), userRequest(false))
	assert.Nil(t, result)
	require.NotNil(t, errResp)
	assert.Equal(t, protocol.ErrorTypeProxy, errResp.Error.Type)
	assert.Equal(t, http.StatusInternalServerError, errResp.Error.Code)
	assert.Contains(t, errResp.Error.Message, "upstream exploded")
}

func TestCreateResponseStreamSetupFailureBecomesProxyError(t *testing.T) {
	backend := &fakeBackend{streamErr: errors.New("dial refused")}
	p := New(backend, nil)

	result, errResp := p.CreateResponse(context.Background(), userRequest(true))
	assert.Nil(t, result)
	require.NotNil(t, errResp)
	assert.Equal(t, protocol.ErrorTypeProxy, errResp.Error.Type)
	assert.Contains(t, errResp.Error.Message, "dial refused")
}

func TestLoggingFailureDoesNotAbortResponse(t *testing.T) {
	backend := &fakeBackend{chatResp: &protocol.ChatResponse{
		Model:   "m",
		Choices: []protocol.ChatChoice{{Message: protocol.ChatMessage{Content: "ok"}}},
	}}
	logger := newRecordingLogger()
	logger.failWith = errors.New("disk full")
	p := New(backend, logger)

	result, errResp := p.CreateResponse(context.Background(), userRequest(false))
	require.Nil(t, errResp)
	require.NotNil(t, result.Response)
	assert.Equal(t, "ok", result.Response.Output[0].Content)
}

func TestRetrieveAndCancelAlwaysNotSupported(t *testing.T) {
	backend := &fakeBackend{}
	p := New(backend, nil)

	for _, id := range []string{"resp_abc", "", "../../etc/passwd", "resp_%00"} {
		retrieve := p.Retrieve(id)
		require.NotNil(t, retrieve)
		assert.Equal(t, protocol.ErrorTypeNotSupported, retrieve.Error.Type)
		assert.Equal(t, http.StatusNotImplemented, retrieve.Error.Code)

		cancel := p.Cancel(id)
		require.NotNil(t, cancel)
		assert.Equal(t, protocol.ErrorTypeNotSupported, cancel.Error.Type)
		assert.Equal(t, http.StatusNotImplemented, cancel.Error.Code)
	}
	// The remote service is never contacted.
	assert.Zero(t, backend.callCalls)
	assert.Zero(t, backend.streamCalls)
}

func TestNilLoggerDefaultsToNoOp(t *testing.T) {
	p := New(&fakeBackend{chatResp: &protocol.ChatResponse{Model: "m"}}, nil)
	assert.IsType(t, logging.NoOpRequestLogger{}, p.requestLogger)
}
