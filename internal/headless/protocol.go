// Package headless implements the line-delimited JSON worker protocol
// over stdin/stdout: a controller drives the agent through init, send,
// status, cancel and shutdown requests and receives event and result
// frames back.
package headless

// Request is one decoded controller request. Fields beyond Type and ID
// are populated per request type.
type Request struct {
	Type string `json:"type"`
	ID   string `json:"id"`

	// ProtocolVersion and Config apply to init.
	ProtocolVersion string      `json:"protocol_version,omitempty"`
	Config          *InitConfig `json:"config,omitempty"`

	// Message applies to send.
	Message string `json:"message,omitempty"`

	// TargetID applies to cancel.
	TargetID string `json:"target_id,omitempty"`
}

// InitConfig is the session setup carried by an init request.
type InitConfig struct {
	Model         string   `json:"model,omitempty"`
	SystemPrompt  string   `json:"system_prompt,omitempty"`
	Tools         []string `json:"tools,omitempty"`
	MaxIterations int      `json:"max_iterations,omitempty"`
}

// InitOK acknowledges an init and reports the worker's own protocol
// version.
type InitOK struct {
	Type            string `json:"type"`
	ID              string `json:"id"`
	SessionID       string `json:"session_id"`
	ProtocolVersion string `json:"protocol_version"`
}

// StatusOK answers a status request.
type StatusOK struct {
	Type          string `json:"type"`
	ID            string `json:"id"`
	Model         string `json:"model"`
	MessagesCount int    `json:"messages_count"`
	SessionID     string `json:"session_id"`
	Active        bool   `json:"active"`
}

// ShutdownOK acknowledges a shutdown before the process exits.
type ShutdownOK struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// EventFrame wraps one worker event. The payload is a loose map because
// each event kind carries a different field set.
type EventFrame struct {
	Type  string         `json:"type"`
	Event map[string]any `json:"event"`
}

// ToolCallMade records one started tool call for the terminal result.
// Args holds the parsed JSON arguments, or an empty object when the
// arguments did not parse.
type ToolCallMade struct {
	Name string `json:"name"`
	Args any    `json:"args"`
}

// UsagePayload carries token counts in results and usage events.
type UsagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the terminal frame for a request. ToolCallsMade is always
// present, even when empty.
type Result struct {
	Type          string         `json:"type"`
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Response      *string        `json:"response,omitempty"`
	ToolCallsMade []ToolCallMade `json:"tool_calls_made"`
	Usage         *UsagePayload  `json:"usage,omitempty"`
	Iterations    int            `json:"iterations"`
	Error         string         `json:"error,omitempty"`
}

func errorResult(id, msg string) *Result {
	return &Result{
		Type:          "result",
		ID:            id,
		Status:        "error",
		ToolCallsMade: []ToolCallMade{},
		Error:         msg,
	}
}
