// Package translator converts between the Responses API shape exposed to
// clients and the chat completions shape understood by the upstream service.
// Request and response translation are total functions: malformed input
// degrades to empty values and is left for the upstream to reject.
package translator

import (
	"bytes"

	"github.com/tidwall/gjson"

	"github.com/router-for-me/ResponsesProxy/internal/protocol"
)

// ConvertResponsesRequestToChat maps a Responses API request onto a chat
// completions request. Sampling parameters are copied only when present on
// the source; the stream flag defaults to false when unset.
func ConvertResponsesRequestToChat(req *protocol.ResponsesRequest) *protocol.ChatRequest {
	out := &protocol.ChatRequest{
		Model:    req.Model,
		Messages: normalizeInput(req.Input),
	}
	if req.Stream != nil {
		out.Stream = *req.Stream
	}
	out.Temperature = req.Temperature
	out.TopP = req.TopP
	out.MaxTokens = req.MaxTokens
	out.PresencePenalty = req.PresencePenalty
	out.FrequencyPenalty = req.FrequencyPenalty
	// An explicit "stop": null decodes to the literal null token; treat it
	// the same as an absent field rather than forwarding it.
	if stop := bytes.TrimSpace(req.Stop); len(stop) > 0 && !bytes.Equal(stop, []byte("null")) {
		out.Stop = req.Stop
	}
	return out
}

// normalizeInput flattens the polymorphic `input` field into an ordered
// message list. A JSON array yields one chat message per element in order; a
// single object is wrapped into a one-element list. Anything else yields an
// empty list.
func normalizeInput(raw []byte) []protocol.ChatMessage {
	messages := make([]protocol.ChatMessage, 0, 1)
	if len(raw) == 0 {
		return messages
	}
	root := gjson.ParseBytes(raw)
	switch {
	case root.IsArray():
		root.ForEach(func(_, item gjson.Result) bool {
			if item.IsObject() {
				messages = append(messages, normalizeMessage(item))
			}
			return true
		})
	case root.IsObject():
		messages = append(messages, normalizeMessage(root))
	}
	return messages
}

// normalizeMessage reduces either message form to the plain role/content
// shape. The plain record carries `content` as a string; the richer typed
// form carries a list of text parts, which are concatenated in order. Absent
// fields are dropped rather than defaulted.
func normalizeMessage(msg gjson.Result) protocol.ChatMessage {
	out := protocol.ChatMessage{Role: msg.Get("role").String()}
	content := msg.Get("content")
	switch {
	case content.IsArray():
		content.ForEach(func(_, part gjson.Result) bool {
			if part.IsObject() {
				out.Content += part.Get("text").String()
			} else {
				out.Content += part.String()
			}
			return true
		})
	default:
		out.Content = content.String()
	}
	return out
}
