package main

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/programme-lv/arena/arena"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/srvcerror"
	"github.com/programme-lv/arena/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthn struct {
	id auth.Identity
}

func (a stubAuthn) Identity() (auth.Identity, error) { return a.id, nil }

func (a stubAuthn) Login(context.Context, string, string) (auth.Identity, error) {
	return a.id, nil
}

type stubAPI struct {
	mu        sync.Mutex
	contest   contest.Contest
	submitErr error
	submits   int
}

func (s *stubAPI) GetContest(context.Context, string, bool) (contest.Contest, error) {
	return s.contest, nil
}

func (s *stubAPI) Register(context.Context, string) error { return nil }

func (s *stubAPI) SubmitBulk(context.Context, submission.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits++
	return s.submitErr
}

var alice = auth.Identity{UserID: "user-1", Username: "alice"}

func runningContest() contest.Contest {
	now := time.Now()
	return contest.Contest{
		ID:        "weekly-3",
		Title:     "Weekly 3",
		StartTime: now.Add(-30 * time.Minute),
		EndTime:   now.Add(90 * time.Minute),
		Problems: []contest.Problem{
			{ID: "p1", Title: "One", InputType: contest.InputNumeric},
			{ID: "p2", Title: "Two", InputType: contest.InputExpression},
		},
		Participants: []contest.Participant{
			{User: contest.User{ID: alice.UserID, Username: alice.Username}},
		},
	}
}

// readyModel drives a model through bootstrap into the arena.
func readyModel(t *testing.T, api *stubAPI) model {
	t.Helper()
	ctx := context.Background()
	deps := arena.Deps{API: api, AutosaveInterval: time.Hour}
	m := initialModel(ctx, stubAuthn{id: alice}, deps, arena.BootstrapParams{ContestID: "weekly-3"})
	require.Equal(t, stateLoading, m.state)

	res, err := arena.Bootstrap(ctx, deps, m.params)
	require.NoError(t, err)
	require.Equal(t, arena.OutcomeReady, res.Outcome)
	t.Cleanup(func() { res.Session.Close(context.Background()) })

	next, _ := m.Update(bootstrapMsg{res: res})
	m = next.(model)
	require.Equal(t, stateArena, m.state)
	return m
}

func TestExpiredCredentialsOnSubmitResumeSameSession(t *testing.T) {
	api := &stubAPI{contest: runningContest(), submitErr: srvcerror.ErrUnauthenticated()}
	m := readyModel(t, api)
	s := m.session
	target := s.Target()

	require.NoError(t, s.SetAnswer("p1", "42"))
	require.NoError(t, s.RequestSubmit())
	err := s.Submit(context.Background())
	require.True(t, srvcerror.IsUnauthenticated(err))

	next, _ := m.Update(submitDoneMsg{err: err})
	m = next.(model)
	assert.Equal(t, stateLogin, m.state)
	assert.Same(t, s, m.session, "session survives the trip to the login screen")
	assert.Contains(t, m.View(), "Sign in")

	next, cmd := m.Update(loginDoneMsg{identity: alice})
	m = next.(model)
	assert.Equal(t, stateArena, m.state)
	assert.NotNil(t, cmd)
	assert.Same(t, s, m.session)
	assert.Same(t, s, m.arenaModel.session)
	assert.Equal(t, target, s.Target())
	ans, ok := s.Answer("p1")
	require.True(t, ok)
	assert.Equal(t, "42", ans.Value)
	assert.Equal(t, submission.StateIdle, s.State(), "user may submit again")
	assert.Equal(t, 1, api.submits)
}

func TestOtherSubmitFailuresStayInArena(t *testing.T) {
	api := &stubAPI{contest: runningContest(), submitErr: srvcerror.ErrNetwork()}
	m := readyModel(t, api)

	require.NoError(t, m.session.RequestSubmit())
	err := m.session.Submit(context.Background())
	require.Error(t, err)

	next, _ := m.Update(submitDoneMsg{err: err})
	m = next.(model)
	assert.Equal(t, stateArena, m.state)
}

func TestDifferentUserAfterExpiryBootstrapsAgain(t *testing.T) {
	api := &stubAPI{contest: runningContest()}
	m := readyModel(t, api)

	next, _ := m.Update(submitDoneMsg{err: srvcerror.ErrUnauthenticated()})
	m = next.(model)
	require.Equal(t, stateLogin, m.state)

	bob := auth.Identity{UserID: "user-2", Username: "bob"}
	next, cmd := m.Update(loginDoneMsg{identity: bob})
	m = next.(model)
	assert.Equal(t, stateLoading, m.state)
	assert.Nil(t, m.session)
	assert.Equal(t, bob, m.params.Identity)
	assert.NotNil(t, cmd)
}

func TestWaitSettledWithoutLimitWaitsForSubmit(t *testing.T) {
	var calls atomic.Int32
	state := func() submission.State {
		if calls.Add(1) < 5 {
			return submission.StateSubmitting
		}
		return submission.StateSubmitted
	}
	assert.True(t, waitSettled(state, 0, time.Millisecond))
	assert.EqualValues(t, 5, calls.Load())
}

func TestWaitSettledGivesUpAtLimit(t *testing.T) {
	state := func() submission.State { return submission.StateSubmitting }
	start := time.Now()
	assert.False(t, waitSettled(state, 20*time.Millisecond, time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
