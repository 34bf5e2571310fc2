// Package session models the extract-then-confirm interaction as an explicit
// state value that travels with each request instead of living on the server.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"wealthnav/internal/core"
)

type State string

const (
	Idle      State = "idle"
	Extracted State = "extracted"
	Confirmed State = "confirmed"
	Cancelled State = "cancelled"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidToken      = errors.New("invalid confirmation token")
)

// Confirmation holds an extracted candidate until the operator accepts or
// rejects it. The zero value is Idle.
type Confirmation struct {
	State     State      `json:"state"`
	Date      string     `json:"date,omitempty"`
	Candidate core.Entry `json:"candidate"`
}

func (c Confirmation) current() State {
	if c.State == "" {
		return Idle
	}
	return c.State
}

// Extract moves Idle to Extracted with the given candidate.
func (c Confirmation) Extract(d core.Date, e core.Entry) (Confirmation, error) {
	if c.current() != Idle {
		return c, fmt.Errorf("%w: extract from %s", ErrInvalidTransition, c.current())
	}
	return Confirmation{State: Extracted, Date: d.String(), Candidate: e}, nil
}

// Confirm accepts the figures as finally entered by the operator, which may
// differ from the candidate.
func (c Confirmation) Confirm(e core.Entry) (Confirmation, error) {
	if c.current() != Extracted {
		return c, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, c.current())
	}
	c.State = Confirmed
	c.Candidate = e
	return c, nil
}

func (c Confirmation) Cancel() (Confirmation, error) {
	if c.current() != Extracted {
		return c, fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, c.current())
	}
	c.State = Cancelled
	return c, nil
}

// SnapshotDate is the day the candidate will be recorded under.
func (c Confirmation) SnapshotDate() (core.Date, error) {
	return core.ParseDate(c.Date)
}

// Token serializes the confirmation for a hidden form field.
func (c Confirmation) Token() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// ParseToken restores a confirmation from Token output. An empty token is Idle.
func ParseToken(tok string) (Confirmation, error) {
	if tok == "" {
		return Confirmation{State: Idle}, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return Confirmation{}, ErrInvalidToken
	}
	var c Confirmation
	if err := json.Unmarshal(b, &c); err != nil {
		return Confirmation{}, ErrInvalidToken
	}
	switch c.State {
	case Idle, Extracted, Confirmed, Cancelled:
	default:
		return Confirmation{}, ErrInvalidToken
	}
	if c.State != Idle {
		if _, err := c.SnapshotDate(); err != nil {
			return Confirmation{}, ErrInvalidToken
		}
	}
	return c, nil
}
