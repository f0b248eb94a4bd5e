package runner

import "heddle/internal/provider"

// EventType represents the type of event emitted during a run.
type EventType int

const (
	// EventContentDelta indicates streamed text content.
	EventContentDelta EventType = iota
	// EventAssistantMessage indicates a complete assistant turn.
	EventAssistantMessage
	// EventToolStart indicates a tool execution is starting.
	EventToolStart
	// EventToolEnd indicates a tool execution finished.
	EventToolEnd
	// EventUsage carries token usage for the completed remote call.
	EventUsage
	// EventLoopDetected indicates the doom-loop detector fired.
	EventLoopDetected
	// EventError indicates a loop-level error (max iterations, empty
	// response). Provider I/O failures are not events; they surface
	// through Run.Err.
	EventError
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventContentDelta:
		return "content_delta"
	case EventAssistantMessage:
		return "assistant_message"
	case EventToolStart:
		return "tool_start"
	case EventToolEnd:
		return "tool_end"
	case EventUsage:
		return "usage"
	case EventLoopDetected:
		return "loop_detected"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one item of the run's event sequence. Which fields are set
// depends on Type.
type Event struct {
	Type EventType

	// Delta is the text fragment for content_delta events.
	Delta string

	// Message is the assembled assistant message for assistant_message
	// events.
	Message *provider.Message

	// ToolName and ToolCall identify the call for tool_start/tool_end.
	ToolName string
	ToolCall *provider.ToolCall

	// Result is the tool output for tool_end events.
	Result string

	// Usage carries token counts for usage events.
	Usage *provider.Usage

	// Count is the window size for loop_detected events.
	Count int

	// ErrorMsg is the message for error events.
	ErrorMsg string
}

func contentDeltaEvent(text string) Event {
	return Event{Type: EventContentDelta, Delta: text}
}

func assistantMessageEvent(msg *provider.Message) Event {
	return Event{Type: EventAssistantMessage, Message: msg}
}

func toolStartEvent(call *provider.ToolCall) Event {
	return Event{Type: EventToolStart, ToolName: call.Function.Name, ToolCall: call}
}

func toolEndEvent(call *provider.ToolCall, result string) Event {
	return Event{Type: EventToolEnd, ToolName: call.Function.Name, ToolCall: call, Result: result}
}

func usageEvent(usage *provider.Usage) Event {
	return Event{Type: EventUsage, Usage: usage}
}

func loopDetectedEvent(count int) Event {
	return Event{Type: EventLoopDetected, Count: count}
}

func errorEvent(msg string) Event {
	return Event{Type: EventError, ErrorMsg: msg}
}
