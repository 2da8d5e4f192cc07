// Package browser performs atomic page actions for the automation workflows.
package browser

import (
	"context"
	"fmt"
)

// ActionKind enumerates the atomic actions a workflow can request.
type ActionKind string

const (
	ActionNavigate    ActionKind = "navigate"
	ActionClick       ActionKind = "click"
	ActionFill        ActionKind = "fill"
	ActionSetRadio    ActionKind = "set_radio"
	ActionWaitVisible ActionKind = "wait_visible"
	ActionScreenshot  ActionKind = "screenshot"
)

// Action is one atomic browser action descriptor. Selector is a CSS query;
// Text selects an element by its visible text instead. When both are set,
// Text wins. Value carries fill text or the radio value to select.
type Action struct {
	Kind     ActionKind `json:"action"`
	URL      string     `json:"url,omitempty"`
	Selector string     `json:"selector,omitempty"`
	Text     string     `json:"text,omitempty"`
	Value    string     `json:"value,omitempty"`
}

// Describe renders the action as a one-line trace entry.
func (a Action) Describe() string {
	switch a.Kind {
	case ActionNavigate:
		return fmt.Sprintf("navigate to %s", a.URL)
	case ActionClick:
		if a.Text != "" {
			return fmt.Sprintf("click element with text %q", a.Text)
		}
		return fmt.Sprintf("click %s", a.Selector)
	case ActionFill:
		return fmt.Sprintf("fill %s with %q", a.Selector, a.Value)
	case ActionSetRadio:
		return fmt.Sprintf("select radio value %s", a.Value)
	case ActionWaitVisible:
		return fmt.Sprintf("wait for %s", a.Selector)
	case ActionScreenshot:
		return "capture screenshot"
	default:
		return string(a.Kind)
	}
}

// Outcome is the uniform result of one performed action. Artifact carries
// screenshot bytes when the action produced one.
type Outcome struct {
	OK       bool
	Detail   string
	Artifact []byte
}

// Page is a single browser tab scoped to one workflow invocation. Callers
// must Close it on every exit path.
type Page interface {
	Perform(ctx context.Context, action Action) Outcome
	Close()
}

// Executor opens pages for workflow runs.
type Executor interface {
	NewPage(ctx context.Context) (Page, error)
}
