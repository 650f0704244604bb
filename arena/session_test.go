package arena_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/programme-lv/arena/answers"
	"github.com/programme-lv/arena/arena"
	"github.com/programme-lv/arena/arenaapi"
	"github.com/programme-lv/arena/arenafake"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/autosave"
	"github.com/programme-lv/arena/palette"
	"github.com/programme-lv/arena/srvcerror"
	"github.com/programme-lv/arena/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = time.Millisecond
)

func readySession(t *testing.T, api *fakeAPI, now *fakeNow) *arena.Session {
	t.Helper()
	res := bootstrap(t, api, nil, now, false)
	require.Equal(t, arena.OutcomeReady, res.Outcome)
	return res.Session
}

func TestAnswersAreTagged(t *testing.T) {
	s := readySession(t, &fakeAPI{contest: threeProblemContest()}, &fakeNow{t: t0})

	require.NoError(t, s.SetAnswer("p2", "b"))
	a, ok := s.Answer("p2")
	require.True(t, ok)
	assert.Equal(t, answers.KindMcq, a.Kind)
	id, ok := a.OptionID()
	assert.True(t, ok)
	assert.Equal(t, "b", id)

	err := s.SetAnswer("p9", "1")
	assert.True(t, srvcerror.HasCode(err, arena.ErrCodeUnknownProblem))
}

func TestSetTwiceAndClear(t *testing.T) {
	s := readySession(t, &fakeAPI{contest: threeProblemContest()}, &fakeNow{t: t0})

	require.NoError(t, s.SetAnswer("p1", "12"))
	require.NoError(t, s.SetAnswer("p1", "12"))
	assert.Equal(t, 1, s.AnsweredCount())

	require.NoError(t, s.SetAnswer("p3", "x+1"))
	assert.Equal(t, 2, s.AnsweredCount())

	require.NoError(t, s.ClearAnswer("p1"))
	assert.Equal(t, 1, s.AnsweredCount())
	_, ok := s.Answer("p1")
	assert.False(t, ok)
}

func TestNavigationLeavesAnswersAlone(t *testing.T) {
	s := readySession(t, &fakeAPI{contest: threeProblemContest()}, &fakeNow{t: t0})
	require.NoError(t, s.SetAnswer("p1", "3"))

	assert.False(t, s.Previous())
	assert.True(t, s.Next())
	assert.True(t, s.Next())
	assert.False(t, s.Next())
	p, i := s.Current()
	assert.Equal(t, "p3", p.ID)
	assert.Equal(t, 2, i)

	require.Error(t, s.JumpTo(3))
	require.NoError(t, s.JumpTo(0))
	assert.Equal(t, 1, s.AnsweredCount())

	cells := s.Cells()
	require.Len(t, cells, 3)
	assert.Equal(t, palette.StatusAnswered, cells[0].Status)
	assert.True(t, cells[0].Active)
	assert.Equal(t, palette.StatusUnanswered, cells[1].Status)
}

func TestSubmitNeedsConfirmation(t *testing.T) {
	api := &fakeAPI{contest: threeProblemContest()}
	s := readySession(t, api, &fakeNow{t: t0})

	err := s.Submit(context.Background())
	assert.True(t, srvcerror.HasCode(err, submission.ErrCodeNotConfirmed))

	require.NoError(t, s.RequestSubmit())
	assert.Equal(t, submission.StateConfirming, s.State())
	s.CancelSubmit()
	assert.Equal(t, submission.StateIdle, s.State())
	assert.Equal(t, 0, api.submitCount())
}

func TestAtMostOneSubmission(t *testing.T) {
	api := &fakeAPI{
		contest: threeProblemContest(),
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := readySession(t, api, &fakeNow{t: t0})
	require.NoError(t, s.SetAnswer("p1", "1"))
	require.NoError(t, s.RequestSubmit())

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()
	<-api.entered
	assert.Equal(t, submission.StateSubmitting, s.State())

	// edits while in flight do not reach the request
	require.NoError(t, s.SetAnswer("p1", "2"))

	err := s.RequestSubmit()
	assert.True(t, srvcerror.HasCode(err, submission.ErrCodeSubmitInFlight))
	err = s.Submit(context.Background())
	assert.True(t, srvcerror.HasCode(err, submission.ErrCodeSubmitInFlight))

	close(api.gate)
	require.NoError(t, <-done)
	assert.Equal(t, submission.StateSubmitted, s.State())

	err = s.RequestSubmit()
	assert.True(t, srvcerror.HasCode(err, submission.ErrCodeAlreadySubmitted))
	assert.Equal(t, 1, api.submitCount())
	assert.Equal(t, "1", api.lastSubmit().Entries[0].Answer.Value)
}

func TestSubmitFailureThenRetry(t *testing.T) {
	api := &fakeAPI{
		contest:    threeProblemContest(),
		submitErrs: []error{srvcerror.ErrValidation("answer to p1 must be a number")},
	}
	s := readySession(t, api, &fakeNow{t: t0})
	require.NoError(t, s.SetAnswer("p1", "twelve"))

	require.NoError(t, s.RequestSubmit())
	require.Error(t, s.Submit(context.Background()))
	assert.Equal(t, submission.StateIdle, s.State())
	assert.Equal(t, "answer to p1 must be a number", s.ErrorMessage())
	a, _ := s.Answer("p1")
	assert.Equal(t, "twelve", a.Value)

	require.NoError(t, s.SetAnswer("p1", "12"))
	require.NoError(t, s.RequestSubmit())
	require.NoError(t, s.Submit(context.Background()))

	assert.Equal(t, submission.StateSubmitted, s.State())
	assert.Equal(t, 2, api.submitCount())
	assert.Empty(t, s.ErrorMessage())
}

func TestExpiryAutoSubmitsOnce(t *testing.T) {
	api := &fakeAPI{
		contest:    threeProblemContest(),
		submitErrs: []error{srvcerror.ErrNetwork()},
	}
	now := &fakeNow{t: t0}
	s := readySession(t, api, now)
	require.NoError(t, s.SetAnswer("p3", "y"))
	require.NoError(t, s.RequestSubmit())

	assert.False(t, s.OnTick(now.Now()))
	now.Advance(90 * time.Minute)
	assert.Equal(t, time.Duration(0), s.Remaining())

	require.True(t, s.OnTick(now.Now()))
	assert.False(t, s.OnTick(now.Now()), "only one automatic attempt")

	require.Error(t, s.AutoSubmit(context.Background()))
	assert.Equal(t, submission.StateIdle, s.State())
	assert.Equal(t, "could not reach the server, please try again", s.ErrorMessage())

	// the user can still submit by hand
	require.NoError(t, s.RequestSubmit())
	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, submission.StateSubmitted, s.State())
	assert.False(t, s.OnTick(now.Now().Add(time.Hour)))
}

func TestSubmitSurvivesCancelledContext(t *testing.T) {
	api := &fakeAPI{contest: threeProblemContest()}
	s := readySession(t, api, &fakeNow{t: t0})
	require.NoError(t, s.RequestSubmit())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Submit(ctx))
	assert.Equal(t, submission.StateSubmitted, s.State())
}

func TestLateResultAfterClose(t *testing.T) {
	drafts := autosave.NewMemStore()
	api := &fakeAPI{
		contest: threeProblemContest(),
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	res := bootstrap(t, api, drafts, &fakeNow{t: t0}, false)
	s := res.Session
	require.NoError(t, s.SetAnswer("p1", "1"))
	require.NoError(t, s.RequestSubmit())

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()
	<-api.entered

	require.NoError(t, s.Close(context.Background()))
	key := autosave.Key{UserID: userID, ContestID: "weekly-3"}
	_, err := drafts.Load(context.Background(), key)
	require.NoError(t, err, "closing mid submit keeps the draft")

	close(api.gate)
	require.NoError(t, <-done)
	assert.Equal(t, submission.StateSubmitted, s.State())
	_, err = drafts.Load(context.Background(), key)
	assert.ErrorIs(t, err, autosave.ErrNotFound, "acknowledged submit drops the draft")
}

// The scenario below runs against the reference backend over HTTP.
func TestHappyPathOverHTTP(t *testing.T) {
	fake := arenafake.New(arenafake.Config{JwtKey: []byte("k")})
	uid, err := fake.AddUser("alice", "secret")
	require.NoError(t, err)

	start := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	c := threeProblemContest()
	c.StartTime, c.EndTime = start, start.Add(time.Hour)
	c.Participants = nil
	fake.AddContest(c)

	ts := httptest.NewServer(fake.Handler())
	defer ts.Close()

	store := auth.NewMemStore(auth.Credentials{})
	client, err := arenaapi.NewClient(ts.URL, store)
	require.NoError(t, err)
	identity, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	drafts := autosave.NewMemStore()
	res, err := arena.Bootstrap(context.Background(), arena.Deps{
		API:              client,
		Drafts:           drafts,
		AutosaveInterval: 10 * time.Millisecond,
	}, arena.BootstrapParams{ContestID: c.ID, Identity: identity})
	require.NoError(t, err)
	require.Equal(t, arena.OutcomeReady, res.Outcome)
	s := res.Session
	defer s.Close(context.Background())

	require.NoError(t, s.SetAnswer("p1", "42"))
	require.NoError(t, s.SetAnswer("p3", "2*x"))

	key := autosave.Key{UserID: uid, ContestID: c.ID}
	require.Eventually(t, func() bool {
		_, err := drafts.Load(context.Background(), key)
		return err == nil
	}, timeout, tick)

	require.NoError(t, s.RequestSubmit())
	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, submission.StateSubmitted, s.State())

	got, ok := fake.Recorded(c.ID, uid, false)
	require.True(t, ok)
	assert.Equal(t, []arenaapi.SubmissionEntry{
		{ProblemID: "p1", Answer: "42", Kind: "numeric"},
		{ProblemID: "p3", Answer: "2*x", Kind: "expression"},
	}, got.Submissions)

	err = s.SetAnswer("p1", "43")
	assert.True(t, srvcerror.HasCode(err, arena.ErrCodeSessionLocked))
	a, _ := s.Answer("p1")
	assert.Equal(t, "42", a.Value)
	assert.True(t, s.Locked())
	assert.True(t, s.Next(), "browsing stays possible")

	_, err = drafts.Load(context.Background(), key)
	assert.ErrorIs(t, err, autosave.ErrNotFound)

	// a fresh bootstrap now lands on the detail view
	again, err := arena.Bootstrap(context.Background(), arena.Deps{API: client},
		arena.BootstrapParams{ContestID: c.ID, Identity: identity})
	require.NoError(t, err)
	assert.Equal(t, arena.OutcomeDetail, again.Outcome)
	assert.Equal(t, 1, fake.SubmitCalls())
}

func TestFailureThenRetryOverHTTP(t *testing.T) {
	fake := arenafake.New(arenafake.Config{JwtKey: []byte("k")})
	_, err := fake.AddUser("bob", "pw")
	require.NoError(t, err)
	start := time.Now().Add(-time.Minute).Truncate(time.Second)
	c := threeProblemContest()
	c.StartTime, c.EndTime = start, start.Add(time.Hour)
	c.Participants = nil
	fake.AddContest(c)
	ts := httptest.NewServer(fake.Handler())
	defer ts.Close()

	creds, err := fake.IssueTokens("bob")
	require.NoError(t, err)
	client, err := arenaapi.NewClient(ts.URL, auth.NewMemStore(creds))
	require.NoError(t, err)
	identity, err := client.Identity()
	require.NoError(t, err)

	res, err := arena.Bootstrap(context.Background(), arena.Deps{API: client},
		arena.BootstrapParams{ContestID: c.ID, Identity: identity})
	require.NoError(t, err)
	require.Equal(t, arena.OutcomeReady, res.Outcome)
	s := res.Session
	defer s.Close(context.Background())

	require.NoError(t, s.SetAnswer("p2", "a"))
	fake.FailNextSubmits(1, "submissions are paused for a moment")

	require.NoError(t, s.RequestSubmit())
	require.Error(t, s.Submit(context.Background()))
	assert.Equal(t, submission.StateIdle, s.State())
	assert.Equal(t, "submissions are paused for a moment", s.ErrorMessage())
	assert.Equal(t, 1, s.AnsweredCount())

	require.NoError(t, s.SetAnswer("p2", "b"))
	require.NoError(t, s.RequestSubmit())
	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, submission.StateSubmitted, s.State())
	assert.Equal(t, 2, fake.SubmitCalls())
}
