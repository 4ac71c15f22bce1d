package upstream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/router-for-me/ResponsesProxy/internal/protocol"
)

// maxSSELineSize bounds a single SSE line; generous enough for any
// single-frame model output.
const maxSSELineSize = 52_428_800 // 50MB

// Stream reads chat completion chunks off a live SSE response body, one chunk
// per Recv call. It performs no read-ahead: backpressure flows from the
// caller straight to the upstream connection.
type Stream struct {
	body      io.ReadCloser
	scanner   *bufio.Scanner
	closeOnce sync.Once
	closeErr  error
	done      bool
}

func newStream(resp *http.Response) *Stream {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(nil, maxSSELineSize)
	return &Stream{body: resp.Body, scanner: scanner}
}

// Recv returns the next chunk, io.EOF once the stream is terminated (by a
// [DONE] marker or connection close), or the underlying read error. Lines
// that are not data frames, and data frames that do not decode as chunk
// objects, are skipped.
func (s *Stream) Recv() (*protocol.ChatChunk, error) {
	if s.done {
		return nil, io.EOF
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 || !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		payload := bytes.TrimSpace(line[5:])
		if bytes.Equal(payload, []byte("[DONE]")) {
			s.done = true
			return nil, io.EOF
		}
		var chunk protocol.ChatChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			log.Debugf("upstream stream: skipping undecodable chunk: %v", err)
			continue
		}
		return &chunk, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close releases the underlying connection. Safe to call multiple times and
// after EOF.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
