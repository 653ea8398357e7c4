// Package source reads and parses the session context Claude Code pipes to a status-line command.
package source

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// DefaultModel is shown when the input names no model.
const DefaultModel = "GLM"

const maxInputSize = 1 << 20

var emptyInput = []byte("{}")

// ParseContext decodes status-line input. Missing or mistyped fields take
// their zero value and input that is not a JSON object yields the default
// context; it never fails.
func ParseContext(data []byte) Context {
	ctx := Context{Model: DefaultModel}

	var root fields
	if err := json.Unmarshal(bytes.TrimSpace(data), &root); err != nil {
		return ctx
	}

	m := root.object("model")
	if name := m.str("display_name"); name != "" {
		ctx.Model = name
	}
	ctx.ModelID = m.str("id")

	cw := root.object("context_window")
	ctx.ContextUsed = cw.num("used_percentage")
	ctx.ContextSize = int64(cw.num("context_window_size"))

	u := cw.object("current_usage")
	ctx.InputTokens = int64(u.num("input_tokens"))
	ctx.OutputTokens = int64(u.num("output_tokens"))
	ctx.CacheCreationTokens = int64(u.num("cache_creation_input_tokens"))
	ctx.CacheReadTokens = int64(u.num("cache_read_input_tokens"))

	ctx.CurrentDir = root.object("workspace").str("current_dir")
	return ctx
}

// ReadInput returns the piped input from f, or "{}" when f is a terminal,
// empty, unreadable, or produces nothing before wait elapses.
func ReadInput(f *os.File, wait time.Duration) []byte {
	if f == nil || isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return emptyInput
	}
	return readWithin(f, wait)
}

func readWithin(r io.Reader, wait time.Duration) []byte {
	done := make(chan []byte, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r, maxInputSize))
		if err != nil {
			data = nil
		}
		done <- data
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case data := <-done:
		if len(bytes.TrimSpace(data)) == 0 {
			return emptyInput
		}
		return data
	case <-timer.C:
		return emptyInput
	}
}
