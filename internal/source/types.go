package source

import "encoding/json"

// fields is one JSON object of the status-line input, kept undecoded so
// every value is read on its own. A mistyped value reads as its zero value
// without affecting its neighbours.
type fields map[string]json.RawMessage

// object returns the nested object under key, or nil when absent or not an object.
func (f fields) object(key string) fields {
	var out fields
	if raw, ok := f[key]; ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (f fields) str(key string) string {
	var out string
	if raw, ok := f[key]; ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (f fields) num(key string) float64 {
	var out float64
	if raw, ok := f[key]; ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

// Context is the local session state rendered alongside remote usage.
type Context struct {
	Model               string
	ModelID             string
	ContextUsed         float64 // percent of the window in use
	ContextSize         int64
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
	CurrentDir          string
}

// SessionTokens is the sum of every token class in the current usage.
func (c Context) SessionTokens() int64 {
	return c.InputTokens + c.OutputTokens + c.CacheCreationTokens + c.CacheReadTokens
}
