package arena_test

import (
	"context"
	"sync"
	"time"

	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/submission"
)

// fakeAPI records calls. When gate is set, SubmitBulk signals entered
// and waits for gate to be closed before answering.
type fakeAPI struct {
	mu          sync.Mutex
	contest     contest.Contest
	getErr      error
	registerErr error
	submitErrs  []error

	gets      int
	registers int
	submits   []submission.Record

	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeAPI) GetContest(_ context.Context, id string, _ bool) (contest.Contest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return contest.Contest{}, f.getErr
	}
	return f.contest, nil
}

func (f *fakeAPI) Register(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers++
	return f.registerErr
}

func (f *fakeAPI) SubmitBulk(ctx context.Context, rec submission.Record) error {
	f.mu.Lock()
	f.submits = append(f.submits, rec)
	var err error
	if len(f.submitErrs) > 0 {
		err, f.submitErrs = f.submitErrs[0], f.submitErrs[1:]
	}
	entered, gate := f.entered, f.gate
	f.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	return err
}

func (f *fakeAPI) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func (f *fakeAPI) lastSubmit() submission.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits[len(f.submits)-1]
}

// fakeNow is a settable clock.
type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeNow) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeNow) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var t0 = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

const userID = "user-1"

func threeProblemContest() contest.Contest {
	return contest.Contest{
		ID:        "weekly-3",
		Title:     "Weekly 3",
		StartTime: t0.Add(-30 * time.Minute),
		EndTime:   t0.Add(90 * time.Minute),
		Problems: []contest.Problem{
			{ID: "p1", Title: "One", InputType: contest.InputNumeric},
			{ID: "p2", Title: "Two", InputType: contest.InputMcqSingle,
				Options: []contest.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}}},
			{ID: "p3", Title: "Three", InputType: contest.InputExpression},
		},
		Participants: []contest.Participant{
			{User: contest.User{ID: userID, Username: "alice"}},
		},
	}
}
