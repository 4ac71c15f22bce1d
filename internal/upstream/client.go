// Package upstream implements the remote chat completions client. It speaks
// plain HTTP to an OpenAI-compatible /chat/completions endpoint with a static
// bearer key, optionally through a SOCKS5 proxy, and exposes both a complete
// response call and a pull-based SSE chunk stream.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/net/proxy"

	"github.com/router-for-me/ResponsesProxy/internal/protocol"
)

const userAgent = "responses-proxy"

// StatusError carries a non-2xx upstream status alongside the response body.
type StatusError struct {
	Code int
	Msg  string
}

func (e StatusError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("status %d", e.Code)
}

// StatusCode returns the upstream HTTP status.
func (e StatusError) StatusCode() int { return e.Code }

// Options configures a Client.
type Options struct {
	// BaseURL is the upstream base URL; /chat/completions is appended.
	BaseURL string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// ProxyURL optionally routes requests through a socks5:// proxy.
	ProxyURL string
	// Timeout bounds non-streaming calls; zero means no client timeout.
	// Streaming calls are bounded by the request context instead.
	Timeout time.Duration
}

// Client is a remote chat completions client. It is safe for concurrent use;
// all mutable per-request state lives in the request and stream objects.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	streamHTTP *http.Client
}

// NewClient builds a client for the configured upstream endpoint.
func NewClient(opts Options) (*Client, error) {
	transport, err := newTransport(opts.ProxyURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Transport: transport, Timeout: opts.Timeout},
		streamHTTP: &http.Client{Transport: transport},
	}, nil
}

// newTransport returns an HTTP transport honoring an optional socks5 proxy
// URL of the form socks5://[user:pass@]host:port.
func newTransport(proxyURL string) (http.RoundTripper, error) {
	if proxyURL == "" {
		return http.DefaultTransport, nil
	}
	trimmed := strings.TrimPrefix(proxyURL, "socks5://")
	if trimmed == proxyURL {
		return nil, fmt.Errorf("unsupported proxy scheme in %q (only socks5 is supported)", proxyURL)
	}
	var auth *proxy.Auth
	if at := strings.LastIndex(trimmed, "@"); at >= 0 {
		cred := trimmed[:at]
		trimmed = trimmed[at+1:]
		auth = &proxy.Auth{User: cred}
		if colon := strings.Index(cred, ":"); colon >= 0 {
			auth.User = cred[:colon]
			auth.Password = cred[colon+1:]
		}
	}
	dialer, err := proxy.SOCKS5("tcp", trimmed, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to build socks5 dialer: %w", err)
	}
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
				return contextDialer.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
	}, nil
}

// CreateChatCompletion performs a non-streaming chat completions call and
// decodes the complete response.
func (c *Client) CreateChatCompletion(ctx context.Context, req *protocol.ChatRequest) (*protocol.ChatResponse, error) {
	body, err := c.encodeRequest(req, false)
	if err != nil {
		return nil, err
	}
	httpResp, err := c.post(ctx, c.httpClient, body, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		if errClose := httpResp.Body.Close(); errClose != nil {
			log.Errorf("upstream client: close response body error: %v", errClose)
		}
	}()

	reader, err := decodeBody(httpResp.Header.Get("Content-Encoding"), httpResp.Body)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	var chat protocol.ChatResponse
	if err = json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return &chat, nil
}

// CreateChatCompletionStream performs a streaming chat completions call and
// returns a pull-based chunk stream backed by the live SSE connection. The
// stream reads nothing from the wire until its first Recv; closing it
// releases the connection.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *protocol.ChatRequest) (*Stream, error) {
	body, err := c.encodeRequest(req, true)
	if err != nil {
		return nil, err
	}
	httpResp, err := c.post(ctx, c.streamHTTP, body, true)
	if err != nil {
		return nil, err
	}
	return newStream(httpResp), nil
}

// encodeRequest serializes the chat request. Streaming requests additionally
// get stream_options.include_usage injected so the final chunk carries token
// totals; the field is upstream-specific and deliberately absent from the
// typed schema.
func (c *Client) encodeRequest(req *protocol.ChatRequest, stream bool) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}
	if stream {
		body, _ = sjson.SetBytes(body, "stream", true)
		body, _ = sjson.SetBytes(body, "stream_options.include_usage", true)
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, client *http.Client, body []byte, stream bool) (*http.Response, error) {
	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Cache-Control", "no-cache")
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		b, _ := io.ReadAll(httpResp.Body)
		if errClose := httpResp.Body.Close(); errClose != nil {
			log.Errorf("upstream client: close response body error: %v", errClose)
		}
		log.Debugf("upstream request failed, status: %d, body: %s", httpResp.StatusCode, summarizeErrorBody(b))
		return nil, StatusError{Code: httpResp.StatusCode, Msg: summarizeErrorBody(b)}
	}
	return httpResp, nil
}

// summarizeErrorBody extracts error.message from an upstream error payload
// when present, falling back to the raw body.
func summarizeErrorBody(body []byte) string {
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return string(bytes.TrimSpace(body))
}
