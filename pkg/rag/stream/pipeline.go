// Package stream drives a single answer turn against the completion
// backend: it forwards deltas to the caller as they arrive, accumulates the
// full text, and reports how the turn ended.
package stream

import (
	"context"
	"fmt"
	"strings"

	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/llm"
)

type State string

const (
	StateIdle              State = "idle"
	StateAwaitingFirstToken State = "awaiting_first_token"
	StateStreaming         State = "streaming"
	StateCompleted         State = "completed"
	StateCancelled         State = "cancelled"
	StateFailed            State = "failed"
)

// Outcome describes how a turn ended. Content is the full accumulated text;
// it is only meaningful when State is StateCompleted. Err is set for
// StateFailed.
type Outcome struct {
	State   State
	Content string
	Err     error
}

// DeltaSink receives each text delta in arrival order. Returning an error
// aborts the turn as cancelled (the caller's transport went away).
type DeltaSink func(delta string) error

type Pipeline struct {
	provider llm.LLMProvider
	log      logger.ILogger
}

func NewPipeline(provider llm.LLMProvider, log logger.ILogger) *Pipeline {
	return &Pipeline{
		provider: provider,
		log:      log,
	}
}

// Run streams a completion for history, forwarding every delta to sink
// exactly once. Cancellation is checked between delta reads; a cancelled or
// failed turn reports its terminal state in the Outcome rather than as a
// returned error. The returned error covers only the initial provider call.
func (p *Pipeline) Run(ctx context.Context, history []llm.Message, sink DeltaSink, opts ...llm.Option) (*Outcome, error) {
	deltas, err := p.provider.ChatStream(ctx, history, opts...)
	if err != nil {
		return nil, fmt.Errorf("start completion stream: %w", err)
	}

	var sb strings.Builder
	state := StateAwaitingFirstToken

	for {
		select {
		case <-ctx.Done():
			p.drain(deltas)
			return &Outcome{State: StateCancelled, Err: ctx.Err()}, nil

		case d, ok := <-deltas:
			if !ok {
				// Channel closed without a terminal delta.
				if ctx.Err() != nil {
					return &Outcome{State: StateCancelled, Err: ctx.Err()}, nil
				}
				return &Outcome{State: StateFailed, Err: fmt.Errorf("completion stream closed unexpectedly")}, nil
			}

			if d.Err != nil {
				p.log.Error("stream", "completion provider error mid-stream", map[string]interface{}{
					"error": d.Err.Error(),
					"state": string(state),
				})
				p.drain(deltas)
				return &Outcome{State: StateFailed, Err: d.Err}, nil
			}

			if d.Content != "" {
				state = StateStreaming
				sb.WriteString(d.Content)
				if err := sink(d.Content); err != nil {
					p.drain(deltas)
					return &Outcome{State: StateCancelled, Err: err}, nil
				}
			}

			if d.Done {
				p.drain(deltas)
				return &Outcome{State: StateCompleted, Content: sb.String()}, nil
			}
		}
	}
}

// drain unblocks the producer goroutine so it can observe cancellation and
// exit.
func (p *Pipeline) drain(deltas <-chan llm.Delta) {
	go func() {
		for range deltas {
		}
	}()
}
