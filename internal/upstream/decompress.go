package upstream

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// decodeBody wraps an upstream response body with the decoder matching its
// Content-Encoding. Unknown or empty encodings pass the body through.
func decodeBody(contentEncoding string, body io.Reader) (io.Reader, error) {
	switch strings.ToLower(contentEncoding) {
	case "gzip":
		reader, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return reader, nil
	case "deflate":
		return flate.NewReader(body), nil
	case "br":
		return brotli.NewReader(body), nil
	case "zstd":
		decoder, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder.IOReadCloser(), nil
	default:
		return body, nil
	}
}
