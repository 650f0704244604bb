package submission

import (
	"errors"
	"sync"

	"github.com/programme-lv/arena/answers"
	"github.com/programme-lv/arena/srvcerror"
)

type State int

const (
	StateIdle State = iota
	StateConfirming
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirming:
		return "confirming"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

// Flow is the submission state machine of a single attempt:
//
//	idle -> confirming -> submitting -> submitted
//	                          |
//	                          +-> idle (on failure, with LastError set)
//
// submitted is terminal.
type Flow struct {
	mu         sync.Mutex
	state      State
	lastErr    error
	contestID  string
	virtual    bool
	problemIDs []string
	record     *Record
}

func NewFlow(contestID string, virtual bool, problemIDs []string) *Flow {
	ids := make([]string, len(problemIDs))
	copy(ids, problemIDs)
	return &Flow{
		contestID:  contestID,
		virtual:    virtual,
		problemIDs: ids,
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Request asks for confirmation before the destructive submit.
func (f *Flow) Request() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateSubmitted:
		return ErrAlreadySubmitted()
	case StateSubmitting:
		return ErrSubmitInFlight()
	}
	f.state = StateConfirming
	return nil
}

// Cancel backs out of the confirmation step.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateConfirming {
		f.state = StateIdle
	}
}

// Confirm enters submitting and freezes snap into the record that will be
// sent. Only valid from confirming.
func (f *Flow) Confirm(snap map[string]answers.Answer) (Record, error) {
	return f.start(snap, false)
}

// AutoStart enters submitting without a confirmation step. Used when the
// countdown runs out.
func (f *Flow) AutoStart(snap map[string]answers.Answer) (Record, error) {
	return f.start(snap, true)
}

func (f *Flow) start(snap map[string]answers.Answer, auto bool) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateSubmitted:
		return Record{}, ErrAlreadySubmitted()
	case StateSubmitting:
		return Record{}, ErrSubmitInFlight()
	case StateIdle:
		if !auto {
			return Record{}, ErrNotConfirmed()
		}
	}
	rec := NewRecord(f.contestID, f.virtual, f.problemIDs, snap)
	f.record = &rec
	f.state = StateSubmitting
	f.lastErr = nil
	return rec, nil
}

// Finish records the outcome of the request started by Confirm/AutoStart.
// Success is terminal; failure returns to idle so the user may retry.
func (f *Flow) Finish(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSubmitting {
		return
	}
	if err != nil {
		f.state = StateIdle
		f.lastErr = err
		return
	}
	f.state = StateSubmitted
}

// ForceSubmitted puts the flow straight into its terminal state.
func (f *Flow) ForceSubmitted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateSubmitted
}

func (f *Flow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Record returns the last record handed out for sending.
func (f *Flow) Record() (Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.record == nil {
		return Record{}, false
	}
	return *f.record, true
}

// ErrorMessage is what the user should read about the last failure: the
// server message verbatim when there is one, a generic retry hint
// otherwise.
func (f *Flow) ErrorMessage() string {
	err := f.LastError()
	if err == nil {
		return ""
	}
	return UserMessage(err)
}

func UserMessage(err error) string {
	srvcErr := &srvcerror.Error{}
	if errors.As(err, &srvcErr) {
		return srvcErr.Error()
	}
	return srvcerror.ErrNetwork().Error()
}
