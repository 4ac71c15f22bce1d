// Package proxy implements the Responses API orchestrator. It owns the
// remote chat completions backend and the request logging collaborator,
// dispatches requests to the streaming or non-streaming path, and converts
// every failure into the uniform error shape.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/router-for-me/ResponsesProxy/internal/logging"
	"github.com/router-for-me/ResponsesProxy/internal/protocol"
	"github.com/router-for-me/ResponsesProxy/internal/translator"
	"github.com/router-for-me/ResponsesProxy/internal/upstream"
)

// ChatBackend is the remote chat completions capability the proxy depends
// on. It must be safe for concurrent use across in-flight requests.
type ChatBackend interface {
	CreateChatCompletion(ctx context.Context, req *protocol.ChatRequest) (*protocol.ChatResponse, error)
	CreateChatCompletionStream(ctx context.Context, req *protocol.ChatRequest) (translator.ChunkStream, error)
}

// CreateResult is the successful outcome of CreateResponse: exactly one of
// Response (non-streaming) or Stream (streaming) is set.
type CreateResult struct {
	Response *protocol.ResponsesResponse
	Stream   *translator.ResponseStream
}

// Proxy translates Responses API requests into chat completions calls
// against a single upstream. It holds no per-request state; all translation
// state lives in the per-request result objects.
type Proxy struct {
	backend       ChatBackend
	requestLogger logging.RequestLogger
}

// New creates a proxy over the given backend. A nil requestLogger disables
// request logging.
func New(backend ChatBackend, requestLogger logging.RequestLogger) *Proxy {
	if requestLogger == nil {
		requestLogger = logging.NoOpRequestLogger{}
	}
	return &Proxy{backend: backend, requestLogger: requestLogger}
}

// CreateResponse handles a Responses API request. The response id and
// timestamp are fixed before the remote call and stay stable through every
// event describing the response. Remote failures (and, on the streaming
// path, failures before any event is produced) come back as proxy_error.
func (p *Proxy) CreateResponse(ctx context.Context, req *protocol.ResponsesRequest) (*CreateResult, *protocol.ErrorResponse) {
	responseID := newResponseID()
	createdAt := time.Now().Unix()

	chatReq := translator.ConvertResponsesRequestToChat(req)
	p.logRequest(responseID, req)

	if chatReq.Stream {
		chunks, err := p.backend.CreateChatCompletionStream(ctx, chatReq)
		if err != nil {
			log.WithError(err).Error("streaming chat completions call failed")
			return nil, protocol.NewProxyError(fmt.Sprintf("Proxy error: %v", err))
		}
		stream := translator.NewResponseStream(chunks, responseID, createdAt, req.Model)
		return &CreateResult{Stream: stream}, nil
	}

	chatResp, err := p.backend.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		log.WithError(err).Error("chat completions call failed")
		return nil, protocol.NewProxyError(fmt.Sprintf("Proxy error: %v", err))
	}
	response := translator.ConvertChatResponseToResponses(chatResp, responseID, createdAt)
	p.logResponse(responseID, response)
	return &CreateResult{Response: response}, nil
}

// Retrieve is an unconditional no-op: no response storage exists, so
// retrieval by id always reports not_supported without contacting the
// upstream.
func (p *Proxy) Retrieve(responseID string) *protocol.ErrorResponse {
	log.Warnf("retrieve called for %q but responses are not stored", responseID)
	return protocol.NewNotSupportedError("Response retrieval is not supported in proxy mode")
}

// Cancel is an unconditional no-op for the same reason as Retrieve.
func (p *Proxy) Cancel(responseID string) *protocol.ErrorResponse {
	log.Warnf("cancel called for %q but responses are not stored", responseID)
	return protocol.NewNotSupportedError("Response cancellation is not supported in proxy mode")
}

// logRequest and logResponse are best-effort: a logging failure must not
// mask a successful inference, so errors are warned and swallowed.
func (p *Proxy) logRequest(responseID string, req *protocol.ResponsesRequest) {
	if !p.requestLogger.IsEnabled() {
		return
	}
	payload, err := json.Marshal(req)
	if err == nil {
		err = p.requestLogger.LogRequest(responseID, payload)
	}
	if err != nil {
		log.WithError(err).Warn("failed to log request")
	}
}

func (p *Proxy) logResponse(responseID string, resp *protocol.ResponsesResponse) {
	if !p.requestLogger.IsEnabled() {
		return
	}
	payload, err := json.Marshal(resp)
	if err == nil {
		err = p.requestLogger.LogResponse(responseID, payload)
	}
	if err != nil {
		log.WithError(err).Warn("failed to log response")
	}
}

func newResponseID() string {
	return "resp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewUpstreamBackend adapts the concrete upstream client to the ChatBackend
// interface (the stream return type narrows to translator.ChunkStream).
func NewUpstreamBackend(client *upstream.Client) ChatBackend {
	return upstreamBackend{client: client}
}

type upstreamBackend struct {
	client *upstream.Client
}

func (b upstreamBackend) CreateChatCompletion(ctx context.Context, req *protocol.ChatRequest) (*protocol.ChatResponse, error) {
	return b.client.CreateChatCompletion(ctx, req)
}

func (b upstreamBackend) CreateChatCompletionStream(ctx context.Context, req *protocol.ChatRequest) (translator.ChunkStream, error) {
	stream, err := b.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return stream, nil
}
