package source

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestParseContext_EmptyObject(t *testing.T) {
	ctx := ParseContext([]byte(`{}`))

	if ctx.Model != "GLM" {
		t.Errorf("Model = %q, want GLM", ctx.Model)
	}
	if ctx.SessionTokens() != 0 {
		t.Errorf("SessionTokens = %d, want 0", ctx.SessionTokens())
	}
	if ctx.ContextUsed != 0 {
		t.Errorf("ContextUsed = %v, want 0", ctx.ContextUsed)
	}
}

func TestParseContext_FullInput(t *testing.T) {
	ctx := ParseContext([]byte(`{
		"model": {"id": "glm-4.6", "display_name": "GLM-4.6"},
		"context_window": {
			"used_percentage": 42.5,
			"context_window_size": 200000,
			"current_usage": {
				"input_tokens": 1200,
				"output_tokens": 300,
				"cache_creation_input_tokens": 5000,
				"cache_read_input_tokens": 20000
			}
		},
		"workspace": {"current_dir": "/home/dev/project"}
	}`))

	if ctx.Model != "GLM-4.6" || ctx.ModelID != "glm-4.6" {
		t.Errorf("model = %q/%q", ctx.Model, ctx.ModelID)
	}
	if ctx.ContextUsed != 42.5 {
		t.Errorf("ContextUsed = %v, want 42.5", ctx.ContextUsed)
	}
	if ctx.ContextSize != 200000 {
		t.Errorf("ContextSize = %d, want 200000", ctx.ContextSize)
	}
	if ctx.SessionTokens() != 26500 {
		t.Errorf("SessionTokens = %d, want 26500", ctx.SessionTokens())
	}
	if ctx.CurrentDir != "/home/dev/project" {
		t.Errorf("CurrentDir = %q", ctx.CurrentDir)
	}
}

func TestParseContext_EmptyDisplayNameKeepsDefault(t *testing.T) {
	ctx := ParseContext([]byte(`{"model":{"id":"glm-4.5","display_name":""}}`))
	if ctx.Model != "GLM" {
		t.Errorf("Model = %q, want GLM", ctx.Model)
	}
	if ctx.ModelID != "glm-4.5" {
		t.Errorf("ModelID = %q", ctx.ModelID)
	}
}

func TestParseContext_Malformed(t *testing.T) {
	for _, in := range []string{"", "not json", `{"model":`, `[]`, `{"context_window":{"used_percentage":"high"}}`} {
		ctx := ParseContext([]byte(in))
		if ctx != (Context{Model: "GLM"}) {
			t.Errorf("ParseContext(%q) = %+v, want defaults", in, ctx)
		}
	}
}

func TestParseContext_MistypedFieldZeroesOnlyItself(t *testing.T) {
	in := `{"model":{"display_name":"Opus 4"},"context_window":{"used_percentage":42,"context_window_size":200000,"current_usage":{"input_tokens":1500.0,"output_tokens":"12"}}}`
	ctx := ParseContext([]byte(in))
	want := Context{
		Model:       "Opus 4",
		ContextUsed: 42,
		ContextSize: 200000,
		InputTokens: 1500,
	}
	if ctx != want {
		t.Errorf("ParseContext = %+v, want %+v", ctx, want)
	}
}

func TestParseContext_MistypedSection(t *testing.T) {
	ctx := ParseContext([]byte(`{"model":"Opus 4","context_window":{"used_percentage":10},"workspace":{"current_dir":7}}`))
	want := Context{Model: "GLM", ContextUsed: 10}
	if ctx != want {
		t.Errorf("ParseContext = %+v, want %+v", ctx, want)
	}
}

func TestParseContext_NullSections(t *testing.T) {
	ctx := ParseContext([]byte(`{"model":null,"context_window":{"current_usage":null},"workspace":null}`))
	if ctx != (Context{Model: "GLM"}) {
		t.Errorf("ParseContext = %+v, want defaults", ctx)
	}
}

func TestReadWithin_ReturnsPipedData(t *testing.T) {
	got := readWithin(strings.NewReader(`{"model":{"display_name":"X"}}`), time.Second)
	if string(got) != `{"model":{"display_name":"X"}}` {
		t.Errorf("readWithin = %s", got)
	}
}

func TestReadWithin_EmptyInput(t *testing.T) {
	got := readWithin(strings.NewReader("  \n"), time.Second)
	if string(got) != "{}" {
		t.Errorf("readWithin = %q, want {}", got)
	}
}

func TestReadWithin_TimesOut(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	start := time.Now()
	got := readWithin(pr, 20*time.Millisecond)
	if string(got) != "{}" {
		t.Errorf("readWithin = %q, want {}", got)
	}
	if time.Since(start) > time.Second {
		t.Error("readWithin did not honor the wait")
	}
}

func TestReadInput_NilFile(t *testing.T) {
	if got := ReadInput(nil, time.Millisecond); string(got) != "{}" {
		t.Errorf("ReadInput(nil) = %q", got)
	}
}
