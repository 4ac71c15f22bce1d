package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/router-for-me/ResponsesProxy/internal/protocol"
	"github.com/router-for-me/ResponsesProxy/internal/proxy"
	"github.com/router-for-me/ResponsesProxy/internal/translator"
)

// ResponsesHandler serves the /v1/responses routes.
type ResponsesHandler struct {
	proxy *proxy.Proxy
}

// NewResponsesHandler creates a handler over the given orchestrator.
func NewResponsesHandler(p *proxy.Proxy) *ResponsesHandler {
	return &ResponsesHandler{proxy: p}
}

// CreateResponse handles POST /v1/responses. Streaming requests are answered
// with SSE frames; non-streaming requests with a single JSON response.
func (h *ResponsesHandler) CreateResponse(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, protocol.NewProxyError(fmt.Sprintf("Proxy error: %v", err)))
		return
	}
	var req protocol.ResponsesRequest
	if err = json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, protocol.ErrorResponse{Error: protocol.ErrorDetail{
			Message: fmt.Sprintf("Invalid request body: %v", err),
			Type:    "invalid_request_error",
			Code:    http.StatusBadRequest,
		}})
		return
	}

	result, errResp := h.proxy.CreateResponse(c.Request.Context(), &req)
	if errResp != nil {
		writeError(c, errResp)
		return
	}
	if result.Stream != nil {
		h.writeEventStream(c, result.Stream)
		return
	}
	c.JSON(http.StatusOK, result.Response)
}

// RetrieveResponse handles GET /v1/responses/:id. Always not_supported.
func (h *ResponsesHandler) RetrieveResponse(c *gin.Context) {
	writeError(c, h.proxy.Retrieve(c.Param("id")))
}

// CancelResponse handles POST /v1/responses/:id/cancel. Always not_supported.
func (h *ResponsesHandler) CancelResponse(c *gin.Context) {
	writeError(c, h.proxy.Cancel(c.Param("id")))
}

// writeEventStream drains the response stream into SSE frames. The stream is
// closed on every exit path so an abandoned or failed request releases the
// upstream connection. A sequence that ends without a response.completed
// frame marks an incomplete response; no synthetic error event is sent.
func (h *ResponsesHandler) writeEventStream(c *gin.Context, stream *translator.ResponseStream) {
	defer func() {
		if errClose := stream.Close(); errClose != nil {
			log.WithError(errClose).Warn("failed to close response stream")
		}
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher, _ := c.Writer.(http.Flusher)

	for {
		event, err := stream.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.WithError(err).Error("response stream failed mid-flight")
			return
		}
		payload, errMarshal := json.Marshal(event)
		if errMarshal != nil {
			log.WithError(errMarshal).Error("failed to encode stream event")
			return
		}
		if _, errWrite := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Type, payload); errWrite != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func writeError(c *gin.Context, errResp *protocol.ErrorResponse) {
	c.JSON(errResp.StatusCode(), errResp)
}
