package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

type BrotliConfig struct {
	Quality   int
	Skipper   func(c *gin.Context) bool
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// Content types that are already compressed.
var precompressedTypes = []string{
	"application/vnd.openxmlformats",
	"application/zip",
	"image/",
}

type brotliState int

const (
	brotliPending brotliState = iota
	brotliOn
	brotliOff
)

type brotliWriter struct {
	gin.ResponseWriter
	writer    *brotli.Writer
	quality   int
	buf       []byte
	minLength int
	state     brotliState
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	switch bw.state {
	case brotliOn:
		return bw.writer.Write(data)
	case brotliOff:
		return bw.ResponseWriter.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.minLength {
		return len(data), nil
	}

	if isPrecompressed(bw.ResponseWriter.Header().Get("Content-Type")) {
		bw.state = brotliOff
		_, err := bw.release(bw.ResponseWriter)
		return len(data), err
	}

	bw.state = brotliOn
	bw.ResponseWriter.Header().Set("Content-Encoding", "br")
	bw.ResponseWriter.Header().Del("Content-Length")
	bw.writer = brotli.NewWriterLevel(bw.ResponseWriter, bw.quality)
	_, err := bw.release(bw.writer)
	return len(data), err
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush gives up on compression for streaming responses that flush
// before reaching MinLength.
func (bw *brotliWriter) Flush() {
	switch bw.state {
	case brotliPending:
		bw.state = brotliOff
		_, _ = bw.release(bw.ResponseWriter)
	case brotliOn:
		_ = bw.writer.Flush()
	}
	bw.ResponseWriter.Flush()
}

func (bw *brotliWriter) release(w interface{ Write([]byte) (int, error) }) (int, error) {
	if len(bw.buf) == 0 {
		return 0, nil
	}
	n, err := w.Write(bw.buf)
	bw.buf = bw.buf[:0]
	return n, err
}

// finish writes whatever is left once the handler returns.
func (bw *brotliWriter) finish() error {
	switch bw.state {
	case brotliOn:
		return bw.writer.Close()
	default:
		_, err := bw.release(bw.ResponseWriter)
		return err
	}
}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if shouldSkip(c) || (cfg.Skipper != nil && cfg.Skipper(c)) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}
		defer func() {
			if err := bw.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Writer = bw
		c.Next()
	}
}

// shouldSkip returns true for protocols that are incompatible with
// buffered compression and must be passed through untouched.
func shouldSkip(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	// The WebSocket handshake fails if the response is wrapped.
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func isPrecompressed(contentType string) bool {
	for _, p := range precompressedTypes {
		if strings.HasPrefix(contentType, p) {
			return true
		}
	}
	return false
}

func acceptsBrotli(r *http.Request) bool {
	ae := r.Header.Get("Accept-Encoding")
	for _, enc := range strings.Split(ae, ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
