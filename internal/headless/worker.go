package headless

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"heddle/internal/provider"
	"heddle/internal/runner"
	"heddle/internal/session"
	"heddle/pkg/logger"
)

const resultPreviewLimit = 500

// Worker is the headless adapter. A reader goroutine decodes stdin
// lines into a queue; the dispatcher drains the queue one request at a
// time, so at most one send is ever in flight. Cancels targeting the
// active send short-circuit the queue and are observed by the event
// pump at the next event boundary.
type Worker struct {
	scanner *bufio.Scanner
	out     io.Writer
	exit    func(int)

	mu           sync.Mutex
	session      *session.Session
	activeID     string
	cancelTarget string
	queue        []*Request
	stdinClosed  bool

	wake chan struct{}

	outMu sync.Mutex
}

// NewWorker builds a worker over the given streams. Production callers
// pass os.Stdin and os.Stdout.
func NewWorker(in io.Reader, out io.Writer) *Worker {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	return &Worker{
		scanner: scanner,
		out:     out,
		exit:    os.Exit,
		wake:    make(chan struct{}, 1),
	}
}

// Run serves requests until stdin closes and the queue drains, then
// exits 0. A panic anywhere in dispatch produces a best-effort error
// result and exit 1.
func (w *Worker) Run() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("unhandled failure")
			w.write(errorResult("unknown", fmt.Sprint(r)))
			w.closeSession()
			w.exit(1)
		}
	}()

	go w.readLoop()
	w.dispatch()
}

func (w *Worker) readLoop() {
	for w.scanner.Scan() {
		line := w.scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		req, decodeErr := DecodeRequest(line)
		if decodeErr != "" {
			id := "unknown"
			if req != nil && req.ID != "" {
				id = req.ID
			}
			w.write(errorResult(id, decodeErr))
			continue
		}

		w.mu.Lock()
		if req.Type == "cancel" && w.activeID != "" && req.TargetID == w.activeID {
			// Target is mid-flight; flag it directly so the pump sees it
			// without waiting for the dispatcher.
			w.cancelTarget = req.TargetID
			w.mu.Unlock()
			continue
		}
		w.queue = append(w.queue, req)
		w.mu.Unlock()
		w.signal()
	}

	w.mu.Lock()
	w.stdinClosed = true
	w.mu.Unlock()
	w.signal()
}

func (w *Worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) dispatch() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closed := w.stdinClosed
			w.mu.Unlock()
			if closed {
				w.closeSession()
				w.exit(0)
				return
			}
			<-w.wake
			continue
		}
		req := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()
		w.handle(req)
	}
}

func (w *Worker) handle(req *Request) {
	logger.Debug("headless").Str("type", req.Type).Str("id", req.ID).Msg("handling request")
	switch req.Type {
	case "init":
		w.handleInit(req)
	case "send":
		w.handleSend(req)
	case "status":
		w.handleStatus(req)
	case "shutdown":
		w.handleShutdown(req)
	case "cancel":
		w.handleCancel(req)
	default:
		w.write(errorResult(req.ID, fmt.Sprintf("Unknown request type: %s", req.Type)))
	}
}

// handleInit checks protocol compatibility, then builds (or replaces)
// the session.
func (w *Worker) handleInit(req *Request) {
	own := OwnVersion()
	if req.ProtocolVersion != "" {
		switch CheckCompat(own, req.ProtocolVersion) {
		case CompatIncompatible:
			w.write(errorResult(req.ID, "protocol_version_mismatch"))
			w.closeSession()
			w.exit(1)
			return
		case CompatMinor:
			logger.Debug("headless").
				Str("ours", own).
				Str("theirs", req.ProtocolVersion).
				Msg("protocol minor version differs")
		}
	}

	var opts session.SetupOptions
	if req.Config != nil {
		opts = session.SetupOptions{
			Model:         req.Config.Model,
			SystemPrompt:  req.Config.SystemPrompt,
			Tools:         req.Config.Tools,
			MaxIterations: req.Config.MaxIterations,
		}
	}
	sess, err := session.Create(opts)
	if err != nil {
		w.write(errorResult(req.ID, err.Error()))
		return
	}

	w.mu.Lock()
	old := w.session
	w.session = sess
	w.mu.Unlock()
	if old != nil {
		old.Close()
	}

	w.write(&InitOK{
		Type:            "init_ok",
		ID:              req.ID,
		SessionID:       sess.ID,
		ProtocolVersion: own,
	})
}

// handleCancel runs when a cancel reaches the dispatcher, meaning its
// target is not currently active. If the target send is still queued
// behind it, the cancel is kept at the queue tail so that send's pump
// observes it; otherwise the target never became active and the cancel
// has nothing to act on.
func (w *Worker) handleCancel(req *Request) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, queued := range w.queue {
		if queued.Type == "send" && queued.ID == req.TargetID {
			w.queue = append(w.queue, req)
			return
		}
	}
	logger.Debug("headless").Str("target", req.TargetID).Msg("cancel with no active target")
}

func (w *Worker) handleStatus(req *Request) {
	w.mu.Lock()
	sess := w.session
	active := w.activeID != ""
	w.mu.Unlock()
	if sess == nil {
		w.write(errorResult(req.ID, "Not initialized. Send 'init' first."))
		return
	}
	w.write(&StatusOK{
		Type:          "status_ok",
		ID:            req.ID,
		Model:         sess.Model,
		MessagesCount: sess.Conversation.Len(),
		SessionID:     sess.ID,
		Active:        active,
	})
}

func (w *Worker) handleShutdown(req *Request) {
	w.write(&ShutdownOK{Type: "shutdown_ok", ID: req.ID})
	w.closeSession()
	w.exit(0)
}

func (w *Worker) handleSend(req *Request) {
	w.mu.Lock()
	sess := w.session
	if sess == nil {
		w.mu.Unlock()
		w.write(errorResult(req.ID, "Not initialized. Send 'init' first."))
		return
	}
	if w.activeID != "" {
		w.mu.Unlock()
		w.write(errorResult(req.ID, "A send is already in progress."))
		return
	}
	w.activeID = req.ID
	w.cancelTarget = ""
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.activeID = ""
		w.cancelTarget = ""
		w.mu.Unlock()
	}()

	user := provider.UserMessage(req.Message)
	sess.Conversation.Append(user)
	if err := sess.Journal.AppendMessage(user); err != nil {
		logger.Warn().Err(err).Msg("journal append failed")
	}
	journaled := sess.Conversation.Len()

	p := newPump(req.ID)
	if w.cancelRequested(req.ID) {
		w.write(p.result("error", "cancelled"))
		return
	}

	loop := runner.New(sess.Provider, sess.Registry, sess.Conversation, runner.Options{
		MaxIterations: sess.MaxIterations,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	run := loop.Run(ctx)

	cancelled := false
	for ev := range run.Events() {
		if w.cancelRequested(req.ID) {
			cancelled = true
			cancel()
			for range run.Events() {
			}
			break
		}
		w.pumpEvent(p, ev)
	}

	// Persist everything the run appended, including partial progress
	// from a cancelled or failed run.
	for _, msg := range sess.Conversation.Messages()[journaled:] {
		if err := sess.Journal.AppendMessage(msg); err != nil {
			logger.Warn().Err(err).Msg("journal append failed")
		}
	}

	if cancelled {
		w.write(p.result("error", "cancelled"))
		return
	}
	if err := run.Err(); err != nil {
		n := Normalize(err)
		logger.Debug("headless").Err(err).Str("code", n.Code).Msg("run failed")
		w.writeEvent(n.workerEvent())
		w.write(p.result("error", n.Error))
		return
	}
	if p.pendingError != "" {
		w.write(p.result("error", p.pendingError))
		return
	}
	w.write(p.result("ok", ""))
}

// cancelRequested reports whether the active send has been cancelled,
// either via the fast-path flag or a queued cancel request. A matching
// queued cancel is consumed.
func (w *Worker) cancelRequested(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancelTarget == id {
		return true
	}
	for i, req := range w.queue {
		if req.Type == "cancel" && req.TargetID == id {
			w.queue = append(w.queue[:i], w.queue[i+1:]...)
			return true
		}
	}
	return false
}

// pump aggregates one send's event stream into its terminal result.
type pump struct {
	id           string
	sawDelta     bool
	deltaBuf     strings.Builder
	response     string
	hasResponse  bool
	iterations   int
	toolCalls    []ToolCallMade
	usage        *UsagePayload
	pendingError string
}

func newPump(id string) *pump {
	return &pump{id: id, toolCalls: []ToolCallMade{}}
}

func (w *Worker) pumpEvent(p *pump, ev runner.Event) {
	switch ev.Type {
	case runner.EventContentDelta:
		p.sawDelta = true
		p.deltaBuf.WriteString(ev.Delta)
		w.writeEvent(map[string]any{"event": "content_delta", "text": ev.Delta})

	case runner.EventAssistantMessage:
		p.iterations++
		if p.sawDelta {
			if p.deltaBuf.Len() > 0 {
				p.response = p.deltaBuf.String()
				p.hasResponse = true
			}
			p.deltaBuf.Reset()
		} else if ev.Message != nil && ev.Message.Content != nil && *ev.Message.Content != "" {
			p.response = *ev.Message.Content
			p.hasResponse = true
		}

	case runner.EventToolStart:
		args := parseArgs(ev.ToolCall.Function.Arguments)
		p.toolCalls = append(p.toolCalls, ToolCallMade{Name: ev.ToolName, Args: args})
		w.writeEvent(map[string]any{"event": "tool_start", "name": ev.ToolName, "args": args})

	case runner.EventToolEnd:
		w.writeEvent(map[string]any{
			"event":          "tool_end",
			"name":           ev.ToolName,
			"result_preview": preview(ev.Result, resultPreviewLimit),
		})

	case runner.EventUsage:
		p.usage = &UsagePayload{
			PromptTokens:     ev.Usage.PromptTokens,
			CompletionTokens: ev.Usage.CompletionTokens,
			TotalTokens:      ev.Usage.TotalTokens,
		}
		w.writeEvent(map[string]any{
			"event":             "usage",
			"prompt_tokens":     ev.Usage.PromptTokens,
			"completion_tokens": ev.Usage.CompletionTokens,
			"total_tokens":      ev.Usage.TotalTokens,
		})

	case runner.EventLoopDetected:
		msg := fmt.Sprintf("Doom loop detected: %d iterations", ev.Count)
		p.pendingError = msg
		w.writeEvent(map[string]any{"event": "error", "error": msg, "code": "loop_detected"})

	case runner.EventError:
		p.pendingError = ev.ErrorMsg
	}
}

// result builds the terminal frame from the pump's aggregates.
func (p *pump) result(status, errMsg string) *Result {
	res := &Result{
		Type:          "result",
		ID:            p.id,
		Status:        status,
		ToolCallsMade: p.toolCalls,
		Usage:         p.usage,
		Iterations:    p.iterations,
		Error:         errMsg,
	}
	if p.hasResponse {
		res.Response = &p.response
	}
	return res
}

func parseArgs(raw string) any {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return map[string]any{}
	}
	if parsed == nil {
		return map[string]any{}
	}
	return parsed
}

func preview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func (w *Worker) writeEvent(ev map[string]any) {
	w.write(&EventFrame{Type: "event", Event: ev})
}

func (w *Worker) write(v any) {
	data, err := EncodeResponse(v)
	if err != nil {
		logger.Error().Err(err).Msg("encode response failed")
		return
	}
	w.outMu.Lock()
	defer w.outMu.Unlock()
	w.out.Write(append(data, '\n'))
}

func (w *Worker) closeSession() {
	w.mu.Lock()
	sess := w.session
	w.session = nil
	w.mu.Unlock()
	if sess != nil {
		sess.Close()
	}
}
