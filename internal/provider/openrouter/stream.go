package openrouter

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"heddle/internal/provider"
	"heddle/pkg/logger"
)

// ProcessStream parses an SSE response body into chunks. Each payload line
// is prefixed with "data: "; the literal "[DONE]" terminates the stream.
// Lines without the prefix (comments, keepalives) are ignored. A trailing
// line left unterminated at EOF is processed like any other.
//
// A chunk that fails to parse is fatal: it is delivered as the final item's
// Err and the channel closes.
func ProcessStream(body io.ReadCloser) <-chan provider.StreamItem {
	items := make(chan provider.StreamItem, 32)

	go func() {
		defer close(items)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			if data == "[DONE]" {
				return
			}

			var chunk provider.Chunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				logger.Debug("provider").Str("data", data).Err(err).Msg("stream chunk parse failed")
				items <- provider.StreamItem{Err: &provider.StreamParseError{Data: data, Err: err}}
				return
			}
			items <- provider.StreamItem{Chunk: &chunk}
		}

		if err := scanner.Err(); err != nil {
			items <- provider.StreamItem{Err: err}
		}
	}()

	return items
}
