package runner

import (
	"sort"
	"strings"

	"heddle/internal/provider"
)

// assembly reconstructs one assistant message from streamed chunks. Text
// deltas concatenate; tool-call fragments accumulate per stream index, with
// the ID last-writer-wins and name/arguments built by concatenation.
type assembly struct {
	content strings.Builder
	calls   map[int]*partialCall
	usage   *provider.Usage
}

type partialCall struct {
	id   string
	name strings.Builder
	args strings.Builder
}

func newAssembly() *assembly {
	return &assembly{calls: make(map[int]*partialCall)}
}

func (a *assembly) addChunk(chunk *provider.Chunk) []string {
	var deltas []string
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			a.content.WriteString(choice.Delta.Content)
			deltas = append(deltas, choice.Delta.Content)
		}
		for _, tc := range choice.Delta.ToolCalls {
			call, ok := a.calls[tc.Index]
			if !ok {
				call = &partialCall{}
				a.calls[tc.Index] = call
			}
			if tc.ID != "" {
				call.id = tc.ID
			}
			call.name.WriteString(tc.Function.Name)
			call.args.WriteString(tc.Function.Arguments)
		}
	}
	if chunk.Usage != nil {
		a.usage = chunk.Usage
	}
	return deltas
}

// message finalizes the assembled assistant message. Content is null when
// no text was produced; tool calls are ordered by their stream index.
func (a *assembly) message() provider.Message {
	msg := provider.Message{Role: provider.RoleAssistant}
	if a.content.Len() > 0 {
		text := a.content.String()
		msg.Content = &text
	}

	if len(a.calls) > 0 {
		indexes := make([]int, 0, len(a.calls))
		for idx := range a.calls {
			indexes = append(indexes, idx)
		}
		sort.Ints(indexes)

		msg.ToolCalls = make([]provider.ToolCall, 0, len(indexes))
		for _, idx := range indexes {
			call := a.calls[idx]
			msg.ToolCalls = append(msg.ToolCalls, provider.ToolCall{
				ID:   call.id,
				Type: "function",
				Function: provider.ToolCallFunction{
					Name:      call.name.String(),
					Arguments: call.args.String(),
				},
			})
		}
	}
	return msg
}
