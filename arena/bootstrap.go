package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/autosave"
	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/srvcerror"
	decorator "github.com/programme-lv/arena/srvccqs"
	"github.com/programme-lv/arena/submission"
)

// ContestAPI is what a session needs from the backend.
type ContestAPI interface {
	GetContest(ctx context.Context, id string, virtual bool) (contest.Contest, error)
	Register(ctx context.Context, id string) error
	SubmitBulk(ctx context.Context, rec submission.Record) error
}

type Deps struct {
	API ContestAPI
	// Drafts may be nil, which turns autosave off.
	Drafts           autosave.Store
	AutosaveInterval time.Duration
	Now              func() time.Time
}

type BootstrapParams struct {
	ContestID string
	Virtual   bool
	Identity  auth.Identity
}

type Outcome int

const (
	// OutcomeReady: the arena can be entered.
	OutcomeReady Outcome = iota
	// OutcomeEmpty: the contest or its problems are missing.
	OutcomeEmpty
	// OutcomeLogin: credentials are missing or expired.
	OutcomeLogin
	// OutcomeDetail: show the read-only contest detail view instead.
	OutcomeDetail
	// OutcomeFailed: something retryable went wrong, e.g. the network.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeEmpty:
		return "empty"
	case OutcomeLogin:
		return "login"
	case OutcomeDetail:
		return "detail"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type DetailReason string

const (
	DetailSubmitted  DetailReason = "submitted"
	DetailNotStarted DetailReason = "not_started"
	DetailEnded      DetailReason = "ended"
)

type Result struct {
	Outcome Outcome
	// Session is set only for OutcomeReady.
	Session *Session
	// Contest is set for OutcomeReady and OutcomeDetail.
	Contest contest.Contest
	Reason  DetailReason
	// Err explains OutcomeEmpty, OutcomeLogin and OutcomeFailed.
	Err error
}

type BootstrapQuery decorator.QueryHandler[BootstrapParams, Result]

func NewBootstrapQuery(deps Deps) BootstrapQuery {
	return decorator.ApplyQueryDecorators[BootstrapParams, Result](bootstrapHandler{deps: deps})
}

// Bootstrap loads the contest once and decides where the user goes.
// Only OutcomeFailed comes with a non-nil error; the other outcomes are
// normal results the caller renders.
func Bootstrap(ctx context.Context, deps Deps, p BootstrapParams) (Result, error) {
	return NewBootstrapQuery(deps).Handle(ctx, p)
}

type bootstrapHandler struct {
	deps Deps
}

func (h bootstrapHandler) Handle(ctx context.Context, p BootstrapParams) (Result, error) {
	now := time.Now
	if h.deps.Now != nil {
		now = h.deps.Now
	}
	log := logger.FromContext(ctx)

	c, err := h.deps.API.GetContest(ctx, p.ContestID, p.Virtual)
	if err != nil {
		return classify(err)
	}
	if len(c.Problems) == 0 {
		return Result{Outcome: OutcomeEmpty, Err: srvcerror.ErrNotFound("this contest has no problems")}, nil
	}
	// read once; the target below never moves afterwards
	loadedAt := now()

	key := autosave.Key{UserID: p.Identity.UserID, ContestID: c.ID, Virtual: p.Virtual}

	if !p.Virtual {
		participant, registered := c.ParticipantFor(p.Identity.UserID)
		switch {
		case registered && participant.IsSubmitted:
			log.Info("attempt already submitted, showing contest detail")
			h.discardDraft(ctx, key)
			return Result{Outcome: OutcomeDetail, Contest: c, Reason: DetailSubmitted}, nil
		case loadedAt.Before(c.StartTime):
			return Result{Outcome: OutcomeDetail, Contest: c, Reason: DetailNotStarted}, nil
		case !loadedAt.Before(c.EndTime):
			return Result{Outcome: OutcomeDetail, Contest: c, Reason: DetailEnded}, nil
		case !registered:
			log.Info("registering for contest")
			if err := h.deps.API.Register(ctx, c.ID); err != nil {
				return classify(err)
			}
		}
	}

	target := c.EndTime
	if p.Virtual {
		target = loadedAt.Add(c.Duration())
	}

	s := newSession(ctx, c, key, target, now, h.deps)
	if err := s.recoverDraft(ctx); err != nil {
		log.Warn("failed to recover draft", "error", err)
	}
	s.startAutosave()

	log.Info("session ready",
		"virtual", p.Virtual,
		"problems", len(c.Problems),
		"target", target,
		"recovered", s.AnsweredCount())
	return Result{Outcome: OutcomeReady, Session: s, Contest: c}, nil
}

func (h bootstrapHandler) discardDraft(ctx context.Context, key autosave.Key) {
	if h.deps.Drafts == nil {
		return
	}
	if err := h.deps.Drafts.Discard(ctx, key); err != nil {
		logger.FromContext(ctx).Warn("failed to discard draft", "key", key.String(), "error", err)
	}
}

func classify(err error) (Result, error) {
	switch {
	case srvcerror.IsNotFound(err):
		return Result{Outcome: OutcomeEmpty, Err: err}, nil
	case srvcerror.IsUnauthenticated(err):
		return Result{Outcome: OutcomeLogin, Err: err}, nil
	}
	return Result{Outcome: OutcomeFailed, Err: err}, fmt.Errorf("failed to bootstrap session: %w", err)
}
