package chat

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation. Order inside a request is
// conversation order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Params carries optional generation parameters. Recognized keys are
// range-checked before dispatch; unrecognized keys flow through to the
// backend untouched.
type Params map[string]any

// Recognized parameter keys.
const (
	ParamTemperature = "temperature"
	ParamMaxTokens   = "max_tokens"
	ParamTopP        = "top_p"
	ParamTopK        = "top_k"
	ParamTimeout     = "timeout"
)

// Request is the normalized chat request handed to every backend adapter.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Params   Params    `json:"params,omitempty"`
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the single normalized completion type produced by every
// backend adapter. Vendor response shapes never leave the adapter.
type Response struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Content  string `json:"content"`
	Usage    *Usage `json:"usage,omitempty"`
}

// Delta is one increment of a streamed completion. Done is set on the
// final delta, which carries no content. A backend that fails mid-stream
// sets Err on its last delta and then closes the channel.
type Delta struct {
	Content string `json:"content"`
	Done    bool   `json:"done,omitempty"`
	Err     error  `json:"-"`
}

// Float reads a numeric parameter. JSON decoding yields float64 but Go
// callers may supply plain ints, so both encodings are accepted.
func (p Params) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Int reads an integer parameter. Floats carrying a whole number count;
// fractional values do not.
func (p Params) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case float32:
		if float64(n) == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// Timeout reads the timeout parameter as a duration. The value is a
// positive number of seconds.
func (p Params) Timeout() (time.Duration, bool) {
	secs, ok := p.Float(ParamTimeout)
	if !ok || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}
