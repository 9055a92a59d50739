package validation

import (
	"fmt"
	"strings"
)

// Checklist accumulates human-readable messages from a series of checks.
// Messages are data, not errors: a failed check never stops the chain.
type Checklist struct {
	messages []string
}

// NewChecklist creates an empty checklist
func NewChecklist() *Checklist {
	return &Checklist{messages: make([]string, 0)}
}

// Require records message when ok is false
func (c *Checklist) Require(ok bool, message string) *Checklist {
	if !ok {
		c.add(message)
	}
	return c
}

// Requiref records a formatted message when ok is false
func (c *Checklist) Requiref(ok bool, format string, args ...interface{}) *Checklist {
	if !ok {
		c.add(fmt.Sprintf(format, args...))
	}
	return c
}

// RequireString records message when value is blank
func (c *Checklist) RequireString(value, message string) *Checklist {
	return c.Require(strings.TrimSpace(value) != "", message)
}

// RequireIf runs check only when condition holds
func (c *Checklist) RequireIf(condition bool, check func() (bool, string)) *Checklist {
	if !condition {
		return c
	}
	ok, message := check()
	return c.Require(ok, message)
}

func (c *Checklist) add(message string) {
	c.messages = append(c.messages, message)
}

// Empty reports whether no check failed
func (c *Checklist) Empty() bool {
	return len(c.messages) == 0
}

// Messages returns the recorded messages in check order
func (c *Checklist) Messages() []string {
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}
