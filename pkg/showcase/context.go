package showcase

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the position of a Context in the showcase protocol
type State string

const (
	StateUnknown       State = "unknown"
	StateHasNextStep   State = "has_next_step"
	StateInvalidParams State = "invalid_params"
	StateCompleted     State = "completed"
	StateNotModified   State = "not_modified"
)

// Terminal reports whether no further submission follows from this state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateNotModified
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateUnknown, StateHasNextStep, StateInvalidParams, StateCompleted, StateNotModified:
		return true
	}
	return false
}

// Context is the navigation state of one showcase walk.
//
// A Context is not safe for concurrent use. Navigator operations mutate and
// return the Context they are given.
type Context struct {
	history      []*Step
	current      *Step
	lastModified time.Time
	answers      map[string]string
	state        State
}

// NewContext creates a context presenting step, with no history.
func NewContext(step *Step, lastModified time.Time) *Context {
	return &Context{
		current:      step,
		lastModified: lastModified,
		state:        StateHasNextStep,
	}
}

// History returns the previously visited steps, oldest first.
func (c *Context) History() []*Step {
	out := make([]*Step, len(c.history))
	copy(out, c.history)
	return out
}

// Current returns the step presented to the caller. It is nil for a
// not-modified context.
func (c *Context) Current() *Step { return c.current }

// LastModified returns the server modification time of the current step.
func (c *Context) LastModified() time.Time { return c.lastModified }

// State returns the current protocol state.
func (c *Context) State() State {
	if c.state == "" {
		return StateUnknown
	}
	return c.state
}

// Answers returns a copy of the final parameter bundle. It is empty unless
// the state is StateCompleted.
func (c *Context) Answers() map[string]string {
	out := make(map[string]string, len(c.answers))
	for k, v := range c.answers {
		out[k] = v
	}
	return out
}

// PushCurrentAsHistory moves the current step onto the history stack and
// presents next instead.
func (c *Context) PushCurrentAsHistory(next *Step) {
	if c.current != nil {
		c.history = append(c.history, c.current)
	}
	c.current = next
}

// PopHistory goes back one step. A completed context is first reverted to
// its last page: the answers are dropped and the current step is kept.
// Otherwise the last history entry becomes current. With empty history the
// call does nothing. It returns the resulting current step.
func (c *Context) PopHistory() *Step {
	if len(c.answers) > 0 {
		c.answers = nil
		c.state = StateHasNextStep
		return c.current
	}
	if len(c.history) == 0 {
		return c.current
	}
	last := len(c.history) - 1
	c.current = c.history[last]
	c.history[last] = nil
	c.history = c.history[:last]
	c.state = StateHasNextStep
	return c.current
}

func (c *Context) complete(answers map[string]string, lastModified time.Time) {
	c.answers = answers
	c.lastModified = lastModified
	c.state = StateCompleted
}

func (c *Context) advance(next *Step, lastModified time.Time) {
	c.PushCurrentAsHistory(next)
	c.lastModified = lastModified
	c.state = StateHasNextStep
}

func (c *Context) reject(replacement *Step, lastModified time.Time) {
	c.current = replacement
	c.lastModified = lastModified
	c.state = StateInvalidParams
}

// contextJSON is the persisted shape of a Context
type contextJSON struct {
	History      []*Step           `json:"history"`
	Current      *Step             `json:"current,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	Answers      map[string]string `json:"answers,omitempty"`
	State        State             `json:"state"`
}

// MarshalJSON encodes the full navigation state.
func (c *Context) MarshalJSON() ([]byte, error) {
	history := c.history
	if history == nil {
		history = []*Step{}
	}
	return json.Marshal(contextJSON{
		History:      history,
		Current:      c.current,
		LastModified: c.lastModified,
		Answers:      c.answers,
		State:        c.State(),
	})
}

// UnmarshalJSON restores a Context written by MarshalJSON.
func (c *Context) UnmarshalJSON(data []byte) error {
	var raw contextJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.State.Valid() {
		return fmt.Errorf("showcase: unknown state %q", raw.State)
	}
	if (len(raw.Answers) > 0) != (raw.State == StateCompleted) {
		return fmt.Errorf("showcase: answers do not match state %q", raw.State)
	}
	history := raw.History
	if len(history) == 0 {
		history = nil
	}
	*c = Context{
		history:      history,
		current:      raw.Current,
		lastModified: raw.LastModified,
		answers:      raw.Answers,
		state:        raw.State,
	}
	return nil
}
