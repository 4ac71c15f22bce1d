// Package protocol defines the wire types shared by the Responses API surface
// and the upstream chat completions surface. Responses-side sampling parameters
// are pointer-typed so that "unset" survives translation: the upstream API
// distinguishes an absent field from an explicit provider default.
package protocol

import "encoding/json"

// Response status values.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// ObjectResponse is the object tag carried by every ResponsesResponse.
const ObjectResponse = "response"

// ResponsesRequest is an inbound Responses API request. Input holds the raw
// JSON of the `input` field, which may be a single message object or an
// ordered list of messages; normalization happens in the request translator.
type ResponsesRequest struct {
	Model            string          `json:"model"`
	Input            json.RawMessage `json:"input,omitempty"`
	Temperature      *float64        `json:"temperature,omitempty"`
	TopP             *float64        `json:"top_p,omitempty"`
	MaxTokens        *int            `json:"max_tokens,omitempty"`
	PresencePenalty  *float64        `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64        `json:"frequency_penalty,omitempty"`
	Stop             json.RawMessage `json:"stop,omitempty"`
	Stream           *bool           `json:"stream,omitempty"`
}

// OutputMessage is a single output item of a ResponsesResponse.
type OutputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseUsage reports token totals for a completed response.
type ResponseUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// ResponsesResponse is a Responses API response snapshot. Usage is nil until
// real totals are known, so in-progress snapshots serialize without it.
type ResponsesResponse struct {
	ID        string          `json:"id"`
	Object    string          `json:"object"`
	CreatedAt int64           `json:"created_at"`
	Model     string          `json:"model"`
	Output    []OutputMessage `json:"output"`
	Status    string          `json:"status"`
	Usage     *ResponseUsage  `json:"usage,omitempty"`
}
