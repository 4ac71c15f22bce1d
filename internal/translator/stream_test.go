package translator

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/router-for-me/ResponsesProxy/internal/protocol"
)

// fakeChunkStream serves chunks from a slice and counts Recv calls.
type fakeChunkStream struct {
	chunks   []*protocol.ChatChunk
	err      error
	pos      int
	recvs    int
	closed   bool
	closeErr error
}

func (f *fakeChunkStream) Recv() (*protocol.ChatChunk, error) {
	f.recvs++
	if f.pos >= len(f.chunks) {
		if f.err != nil {
			return nil, f.err
		}
		return nil, io.EOF
	}
	chunk := f.chunks[f.pos]
	f.pos++
	return chunk, nil
}

func (f *fakeChunkStream) Close() error {
	f.closed = true
	return f.closeErr
}

func contentChunk(delta string) *protocol.ChatChunk {
	return &protocol.ChatChunk{
		Object:  "chat.completion.chunk",
		Choices: []protocol.ChatChunkChoice{{Delta: protocol.ChatDelta{Content: delta}}},
	}
}

func usageChunk(prompt, completion, total int64) *protocol.ChatChunk {
	return &protocol.ChatChunk{
		Object: "chat.completion.chunk",
		Usage:  &protocol.ChatUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total},
	}
}

func TestResponseStreamLeadEventsBeforeAnyRecv(t *testing.T) {
	chunks := &fakeChunkStream{chunks: []*protocol.ChatChunk{contentChunk("x")}}
	stream := NewResponseStream(chunks, "resp_1", 42, "m")

	created, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.EventResponseCreated, created.Type)
	require.NotNil(t, created.Response)
	assert.Equal(t, "resp_1", created.Response.ID)
	assert.Equal(t, protocol.ObjectResponse, created.Response.Object)
	assert.Equal(t, int64(42), created.Response.CreatedAt)
	assert.Equal(t, protocol.StatusInProgress, created.Response.Status)
	assert.Empty(t, created.Response.Output)
	assert.Nil(t, created.Response.Usage)

	inProgress, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.EventResponseInProgress, inProgress.Type)
	assert.Nil(t, inProgress.Response)

	// The two lead events are synthetic: nothing was pulled upstream yet.
	assert.Zero(t, chunks.recvs)
}

func TestResponseStreamAccumulatesContentInArrivalOrder(t *testing.T) {
	chunks := &fakeChunkStream{chunks: []*protocol.ChatChunk{
		contentChunk("Hel"),
		contentChunk("lo"),
		{Object: "chat.completion.chunk"}, // neither content nor usage
		contentChunk("!"),
	}}
	stream := NewResponseStream(chunks, "resp_2", 7, "m")

	_, err := stream.Next()
	require.NoError(t, err)
	_, err = stream.Next()
	require.NoError(t, err)

	completed, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.EventResponseCompleted, completed.Type)
	require.NotNil(t, completed.Response)
	assert.Equal(t, protocol.StatusCompleted, completed.Response.Status)
	require.Len(t, completed.Response.Output, 1)
	assert.Equal(t, "assistant", completed.Response.Output[0].Role)
	assert.Equal(t, "Hello!", completed.Response.Output[0].Content)
	assert.Nil(t, completed.Response.Usage, "usage absent when no chunk carried totals")

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestResponseStreamUsageLastWriterWins(t *testing.T) {
	chunks := &fakeChunkStream{chunks: []*protocol.ChatChunk{
		contentChunk("hi"),
		usageChunk(1, 1, 2),
		usageChunk(10, 20, 30),
	}}
	stream := NewResponseStream(chunks, "resp_3", 7, "m")

	_, _ = stream.Next()
	_, _ = stream.Next()
	completed, err := stream.Next()
	require.NoError(t, err)
	require.NotNil(t, completed.Response.Usage)
	assert.Equal(t, int64(10), completed.Response.Usage.PromptTokens)
	assert.Equal(t, int64(20), completed.Response.Usage.CompletionTokens)
	assert.Equal(t, int64(30), completed.Response.Usage.TotalTokens)
}

func TestResponseStreamMidStreamFailure(t *testing.T) {
	upstreamErr := errors.New("connection reset")
	chunks := &fakeChunkStream{
		chunks: []*protocol.ChatChunk{contentChunk("partial")},
		err:    upstreamErr,
	}
	stream := NewResponseStream(chunks, "resp_4", 7, "m")

	_, _ = stream.Next()
	_, _ = stream.Next()
	_, err := stream.Next()
	require.ErrorIs(t, err, upstreamErr)

	// The sequence terminates without a completed event.
	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestResponseStreamCloseReleasesUpstream(t *testing.T) {
	chunks := &fakeChunkStream{chunks: []*protocol.ChatChunk{contentChunk("x")}}
	stream := NewResponseStream(chunks, "resp_5", 7, "m")

	_, _ = stream.Next()
	require.NoError(t, stream.Close())
	assert.True(t, chunks.closed)

	_, err := stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestResponseStreamEventOrderFixedRegardlessOfChunks(t *testing.T) {
	chunks := &fakeChunkStream{} // empty upstream stream
	stream := NewResponseStream(chunks, "resp_6", 7, "m")

	var types []string
	for {
		event, err := stream.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		types = append(types, event.Type)
	}
	assert.Equal(t, []string{
		protocol.EventResponseCreated,
		protocol.EventResponseInProgress,
		protocol.EventResponseCompleted,
	}, types)
}
