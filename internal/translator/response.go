package translator

import "github.com/router-for-me/ResponsesProxy/internal/protocol"

// ConvertChatResponseToResponses builds a completed ResponsesResponse from a
// non-streaming chat completions response. Missing fields degrade to empty or
// zero values: an empty choices list yields one assistant message with empty
// content, and absent usage yields zero counters.
func ConvertChatResponseToResponses(chat *protocol.ChatResponse, responseID string, createdAt int64) *protocol.ResponsesResponse {
	var content string
	if len(chat.Choices) > 0 {
		content = chat.Choices[0].Message.Content
	}

	usage := &protocol.ResponseUsage{}
	if chat.Usage != nil {
		usage.PromptTokens = chat.Usage.PromptTokens
		usage.CompletionTokens = chat.Usage.CompletionTokens
		usage.TotalTokens = chat.Usage.TotalTokens
	}

	model := chat.Model
	if model == "" {
		model = "unknown"
	}

	return &protocol.ResponsesResponse{
		ID:        responseID,
		Object:    protocol.ObjectResponse,
		CreatedAt: createdAt,
		Model:     model,
		Output: []protocol.OutputMessage{{
			Role:    "assistant",
			Content: content,
		}},
		Status: protocol.StatusCompleted,
		Usage:  usage,
	}
}
