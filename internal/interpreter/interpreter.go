// Package interpreter turns free-text commands into ordered browser action
// plans via an LLM backend.
package interpreter

import (
	"context"
	"errors"
	"fmt"

	"mhmd-mcp/backend/internal/browser"
)

// ErrInterpretationFailed marks a command the interpreter could not turn
// into a plan. The dispatcher attempts no actions when it sees this.
var ErrInterpretationFailed = errors.New("interpretation failed")

// Plan is an ordered sequence of browser actions. The dispatcher executes it
// verbatim, fail-fast. An empty plan is valid and succeeds trivially.
type Plan []browser.Action

// Interpreter translates one free-text command into a Plan. baseURL is the
// frontend entry point the plan should target; relative navigation URLs in
// the returned plan are resolved against it.
type Interpreter interface {
	Interpret(ctx context.Context, command, baseURL string) (Plan, error)
}

// Unavailable is the interpreter used when no LLM backend is configured.
// Every command fails with ErrInterpretationFailed, leaving the rest of the
// service functional.
type Unavailable struct{}

func (Unavailable) Interpret(ctx context.Context, command, baseURL string) (Plan, error) {
	return nil, fmt.Errorf("%w: no LLM backend configured", ErrInterpretationFailed)
}
