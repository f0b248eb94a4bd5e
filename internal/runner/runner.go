// Package runner drives the agent loop: send the conversation, execute any
// requested tools, feed results back, repeat until the model answers in
// plain text or a safety limit trips.
package runner

import (
	"context"
	"fmt"

	"heddle/internal/provider"
	"heddle/internal/session"
	"heddle/internal/tools"
	"heddle/pkg/logger"
)

const (
	// DefaultMaxIterations bounds provider round-trips per run.
	DefaultMaxIterations = 20
	// DefaultDoomLoopThreshold is how many identical consecutive tool-call
	// iterations trigger loop detection.
	DefaultDoomLoopThreshold = 3
)

// Options tunes one loop instance.
type Options struct {
	// MaxIterations caps provider round-trips. Zero means the default.
	MaxIterations int
	// DoomLoopThreshold is the repeated-iteration window size. Zero means
	// the default.
	DoomLoopThreshold int
	// Overrides are per-request parameters merged into every provider call.
	Overrides map[string]any
	// NoStream switches the loop to blocking completions. Content arrives
	// as a single assistant_message with no content_delta events.
	NoStream bool
}

// Loop executes agent runs against one provider, registry and conversation.
type Loop struct {
	prov     provider.Provider
	registry *tools.Registry
	conv     *session.Conversation

	maxIterations int
	doomThreshold int
	overrides     map[string]any
	noStream      bool
}

// New builds a loop. The conversation is shared with the caller: messages
// produced during a run are appended to it as they are finalized.
func New(prov provider.Provider, registry *tools.Registry, conv *session.Conversation, opts Options) *Loop {
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	threshold := opts.DoomLoopThreshold
	if threshold <= 0 {
		threshold = DefaultDoomLoopThreshold
	}
	return &Loop{
		prov:          prov,
		registry:      registry,
		conv:          conv,
		maxIterations: maxIter,
		doomThreshold: threshold,
		overrides:     opts.Overrides,
		noStream:      opts.NoStream,
	}
}

// Run is one in-flight agent run. Consume Events until the channel closes,
// then check Err for the failure that ended the run, if any. Loop-level
// conditions (max iterations, empty responses, loop detection) arrive as
// events; provider I/O and unknown-tool failures end the run through Err.
type Run struct {
	events chan Event
	err    error
	done   chan struct{}
}

// Events returns the run's event stream.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Err blocks until the run finishes and reports its terminal error.
func (r *Run) Err() error {
	<-r.done
	return r.err
}

// Run starts the loop for the user message already appended to the
// conversation. Cancel ctx to stop between events; in-flight provider
// reads observe the cancellation through their request context.
func (l *Loop) Run(ctx context.Context) *Run {
	run := &Run{
		events: make(chan Event),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(run.done)
		defer close(run.events)
		run.err = l.run(ctx, run)
	}()
	return run
}

func (l *Loop) run(ctx context.Context, run *Run) error {
	window := newHashWindow(l.doomThreshold)

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		logger.Debug("runner").
			Int("iteration", iteration).
			Int("messages", l.conv.Len()).
			Msg("sending conversation")

		msg, usage, err := l.step(ctx, run)
		if err != nil {
			return err
		}
		if msg == nil {
			if !emit(ctx, run, errorEvent("No choice in response")) {
				return ctx.Err()
			}
			return nil
		}

		if !emit(ctx, run, assistantMessageEvent(msg)) {
			return ctx.Err()
		}
		l.conv.Append(*msg)
		if usage != nil {
			if !emit(ctx, run, usageEvent(usage)) {
				return ctx.Err()
			}
		}

		if len(msg.ToolCalls) == 0 {
			return nil
		}

		for i := range msg.ToolCalls {
			call := &msg.ToolCalls[i]
			if !emit(ctx, run, toolStartEvent(call)) {
				return ctx.Err()
			}
			result, err := l.registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				return err
			}
			if !emit(ctx, run, toolEndEvent(call, result)) {
				return ctx.Err()
			}
			l.conv.Append(provider.ToolMessage(call.ID, result))
		}

		if window.push(iterationFingerprint(msg.ToolCalls)) {
			logger.Warn().
				Int("window", l.doomThreshold).
				Msg("identical tool-call iterations, stopping run")
			if !emit(ctx, run, loopDetectedEvent(l.doomThreshold)) {
				return ctx.Err()
			}
			return nil
		}
	}

	if !emit(ctx, run, errorEvent(fmt.Sprintf("Max iterations (%d) reached — possible infinite loop", l.maxIterations))) {
		return ctx.Err()
	}
	return nil
}

// step performs one provider round-trip and returns the assistant message,
// or (nil, nil, nil) when the provider returned no choice.
func (l *Loop) step(ctx context.Context, run *Run) (*provider.Message, *provider.Usage, error) {
	defs := l.registry.Definitions()

	if l.noStream {
		resp, err := l.prov.Send(ctx, l.conv.Messages(), defs, l.overrides)
		if err != nil {
			return nil, nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, nil, nil
		}
		msg := resp.Choices[0].Message
		return &msg, resp.Usage, nil
	}

	items, err := l.prov.Stream(ctx, l.conv.Messages(), defs, l.overrides)
	if err != nil {
		return nil, nil, err
	}

	asm := newAssembly()
	sawChunk := false
	for item := range items {
		if item.Err != nil {
			return nil, nil, item.Err
		}
		sawChunk = true
		for _, delta := range asm.addChunk(item.Chunk) {
			if !emit(ctx, run, contentDeltaEvent(delta)) {
				return nil, nil, ctx.Err()
			}
		}
	}
	if !sawChunk {
		return nil, nil, nil
	}
	msg := asm.message()
	return &msg, asm.usage, nil
}

// emit sends one event unless the run context is done.
func emit(ctx context.Context, run *Run, ev Event) bool {
	select {
	case run.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
