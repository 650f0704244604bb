package arena

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/arena/answers"
	"github.com/programme-lv/arena/autosave"
	"github.com/programme-lv/arena/clock"
	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/palette"
	"github.com/programme-lv/arena/submission"
)

// Session is one timed attempt at a contest. It is safe for concurrent
// use: the UI goroutine edits answers while a submit runs elsewhere.
type Session struct {
	id      uuid.UUID
	contest contest.Contest
	virtual bool
	// carries the session scoped logger
	ctx context.Context

	answers *answers.Store
	palette *palette.Palette
	flow    *submission.Flow
	clock   *clock.Clock
	mirror  *autosave.Mirror // nil when autosave is off
	submit  submission.SubmitAnswersCmd

	mu        sync.Mutex
	autoTried bool
	closed    bool
}

func newSession(ctx context.Context, c contest.Contest, key autosave.Key, target time.Time, now func() time.Time, deps Deps) *Session {
	id := uuid.New()
	s := &Session{
		id:      id,
		contest: c,
		virtual: key.Virtual,
		ctx:     logger.WithSession(context.WithoutCancel(ctx), id.String(), c.ID),
		answers: answers.NewStore(),
		palette: palette.New(len(c.Problems)),
		flow:    submission.NewFlow(c.ID, key.Virtual, c.ProblemIDs()),
		clock:   clock.New(target, now),
	}
	if deps.Drafts != nil {
		s.mirror = autosave.NewMirror(deps.Drafts, key, s.answers.SnapshotVersion, deps.AutosaveInterval)
	}
	s.submit = submission.NewSubmitAnswersCmd(submission.SubmitAnswersCmdHandler{
		Flow:        s.flow,
		Snapshot:    s.answers.Snapshot,
		Send:        deps.API.SubmitBulk,
		OnSubmitted: s.onSubmitted,
	})
	return s
}

func (s *Session) ID() uuid.UUID { return s.id }
func (s *Session) Contest() contest.Contest { return s.contest }
func (s *Session) Virtual() bool { return s.virtual }
func (s *Session) Context() context.Context { return s.ctx }
func (s *Session) Problems() []contest.Problem { return s.contest.Problems }

// Current is the problem under the palette cursor.
func (s *Session) Current() (contest.Problem, int) {
	i := s.palette.Active()
	return s.contest.Problems[i], i
}

func (s *Session) Next() bool { return s.palette.Next() }
func (s *Session) Previous() bool { return s.palette.Previous() }

func (s *Session) JumpTo(i int) error {
	return s.palette.JumpTo(i)
}

// Cells is the palette with each problem marked answered or not.
func (s *Session) Cells() []palette.Cell {
	return s.palette.Cells(func(i int) bool {
		return s.answers.Has(s.contest.Problems[i].ID)
	})
}

// Locked reports whether answers can still change.
func (s *Session) Locked() bool {
	return s.palette.Locked()
}

// SetAnswer stores value for the problem, tagged with the kind its input
// type implies. Any non-empty value is accepted as is; an empty one clears.
func (s *Session) SetAnswer(problemID string, value string) error {
	if s.flow.State() == submission.StateSubmitted {
		return ErrSessionLocked()
	}
	p, _, ok := s.contest.ProblemByID(problemID)
	if !ok {
		return ErrUnknownProblem(problemID)
	}
	kind, err := answers.KindFor(p.InputType)
	if err != nil {
		return err
	}
	s.answers.Set(problemID, answers.Answer{Kind: kind, Value: value})
	return nil
}

func (s *Session) ClearAnswer(problemID string) error {
	if s.flow.State() == submission.StateSubmitted {
		return ErrSessionLocked()
	}
	if _, _, ok := s.contest.ProblemByID(problemID); !ok {
		return ErrUnknownProblem(problemID)
	}
	s.answers.Clear(problemID)
	return nil
}

func (s *Session) Answer(problemID string) (answers.Answer, bool) {
	return s.answers.Get(problemID)
}

func (s *Session) AnsweredCount() int {
	return s.answers.Count()
}

func (s *Session) State() submission.State {
	return s.flow.State()
}

// ErrorMessage is the last submit failure as the user should read it.
func (s *Session) ErrorMessage() string {
	return s.flow.ErrorMessage()
}

// SubmittedRecord is what was sent by the successful submit, if any.
func (s *Session) SubmittedRecord() (submission.Record, bool) {
	if s.flow.State() != submission.StateSubmitted {
		return submission.Record{}, false
	}
	return s.flow.Record()
}

func (s *Session) Target() time.Time { return s.clock.Target() }
func (s *Session) Remaining() time.Duration { return s.clock.Remaining() }
func (s *Session) Clock() *clock.Clock { return s.clock }

// RequestSubmit asks for confirmation. Rejected locally once submitted.
func (s *Session) RequestSubmit() error {
	return s.flow.Request()
}

func (s *Session) CancelSubmit() {
	s.flow.Cancel()
}

// Submit sends the confirmed answers. The request is detached from ctx
// cancellation so that leaving the arena never drops a submission half
// way.
func (s *Session) Submit(ctx context.Context) error {
	return s.submit.Handle(s.requestContext(ctx), submission.SubmitAnswersParams{})
}

// AutoSubmit sends the answers without confirmation. Used on expiry.
func (s *Session) AutoSubmit(ctx context.Context) error {
	return s.submit.Handle(s.requestContext(ctx), submission.SubmitAnswersParams{Auto: true})
}

func (s *Session) requestContext(ctx context.Context) context.Context {
	return logger.WithLogger(context.WithoutCancel(ctx), logger.FromContext(s.ctx))
}

// OnTick reports whether the countdown has just run out and an automatic
// submit should start. It says so at most once per session; if that
// submit fails the user submits by hand.
func (s *Session) OnTick(now time.Time) bool {
	if clock.RemainingAt(s.clock.Target(), now) > 0 {
		return false
	}
	switch s.flow.State() {
	case submission.StateIdle, submission.StateConfirming:
	default:
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autoTried || s.closed {
		return false
	}
	s.autoTried = true
	return true
}

func (s *Session) onSubmitted(rec submission.Record) {
	s.palette.Lock()
	logger.FromContext(s.ctx).Info("answers submitted", "entries", len(rec.Entries))
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Discard(s.ctx); err != nil {
		logger.FromContext(s.ctx).Warn("failed to discard draft", "error", err)
	}
}

// recoverDraft merges a saved draft into the empty answer store. Callers only
// reach it when the server reports no submission for this attempt.
func (s *Session) recoverDraft(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}
	snap, err := s.mirror.Recover(ctx)
	if errors.Is(err, autosave.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	kept, dropped := s.applicable(snap.Answers)
	if len(dropped) > 0 {
		logger.FromContext(s.ctx).Warn("dropping draft answers that no longer fit the contest", "problem_ids", dropped)
	}
	s.answers.Restore(kept)
	logger.FromContext(s.ctx).Info("recovered draft", "answers", s.answers.Count(), "saved_at", snap.SavedAt)
	return nil
}

// applicable keeps the draft answers that belong to a problem of this
// contest and carry the kind its input type implies.
func (s *Session) applicable(draft map[string]answers.Answer) (map[string]answers.Answer, []string) {
	kept := make(map[string]answers.Answer, len(draft))
	var dropped []string
	for id, a := range draft {
		p, _, ok := s.contest.ProblemByID(id)
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		kind, err := answers.KindFor(p.InputType)
		if err != nil || kind != a.Kind {
			dropped = append(dropped, id)
			continue
		}
		if kind == answers.KindMcq && !p.HasOption(a.Value) {
			dropped = append(dropped, id)
			continue
		}
		kept[id] = a
	}
	sort.Strings(dropped)
	return kept, dropped
}

func (s *Session) startAutosave() {
	if s.mirror != nil {
		s.mirror.Start(s.ctx)
	}
}

// Close stops background work and writes a final draft. A submit that is
// still in flight keeps running and settles the session state when it
// returns.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.mirror == nil {
		return nil
	}
	if s.flow.State() == submission.StateSubmitted {
		return s.mirror.Discard(ctx)
	}
	return s.mirror.Stop(ctx)
}
