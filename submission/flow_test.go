package submission_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/programme-lv/arena/answers"
	"github.com/programme-lv/arena/srvcerror"
	"github.com/programme-lv/arena/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = time.Millisecond
)

func num(v string) answers.Answer {
	return answers.Answer{Kind: answers.KindNumeric, Value: v}
}

func TestRecordOrderAndFiltering(t *testing.T) {
	snap := map[string]answers.Answer{
		"3":     num("30"),
		"1":     num("10"),
		"ghost": num("0"),
	}
	rec := submission.NewRecord("c1", true, []string{"1", "2", "3"}, snap)

	require.Len(t, rec.Entries, 2)
	assert.Equal(t, "1", rec.Entries[0].ProblemID)
	assert.Equal(t, "3", rec.Entries[1].ProblemID)
	assert.Equal(t, []string{"ghost"}, rec.Dropped)
	assert.True(t, rec.IsVirtual)
	assert.Equal(t, "c1", rec.ContestID)
}

func TestConfirmRequiresRequest(t *testing.T) {
	f := submission.NewFlow("c1", false, []string{"1"})
	_, err := f.Confirm(nil)
	assert.True(t, srvcerror.HasCode(err, submission.ErrCodeNotConfirmed))

	require.NoError(t, f.Request())
	assert.Equal(t, submission.StateConfirming, f.State())
	f.Cancel()
	assert.Equal(t, submission.StateIdle, f.State())
}

func TestSnapshotFrozenAtConfirm(t *testing.T) {
	store := answers.NewStore()
	store.Set("1", num("5"))

	f := submission.NewFlow("c1", false, []string{"1", "2"})
	require.NoError(t, f.Request())
	rec, err := f.Confirm(store.Snapshot())
	require.NoError(t, err)

	store.Set("1", num("6"))
	store.Set("2", num("7"))

	require.Len(t, rec.Entries, 1)
	assert.Equal(t, "5", rec.Entries[0].Answer.Value)
	stored, ok := f.Record()
	require.True(t, ok)
	assert.Equal(t, rec.IdempotencyKey, stored.IdempotencyKey)
}

func TestFailureReturnsToIdle(t *testing.T) {
	f := submission.NewFlow("c1", false, []string{"1"})
	require.NoError(t, f.Request())
	_, err := f.Confirm(map[string]answers.Answer{"1": num("1")})
	require.NoError(t, err)

	f.Finish(srvcerror.ErrValidation("answer for problem 1 is malformed"))
	assert.Equal(t, submission.StateIdle, f.State())
	assert.Equal(t, "answer for problem 1 is malformed", f.ErrorMessage())

	f.Finish(errors.New("late result")) // not submitting, ignored
	assert.Equal(t, submission.StateIdle, f.State())
}

func TestTransportFailureGetsGenericMessage(t *testing.T) {
	f := submission.NewFlow("c1", false, nil)
	_, err := f.AutoStart(nil)
	require.NoError(t, err)
	f.Finish(errors.New("dial tcp: connection refused"))
	assert.Equal(t, srvcerror.ErrNetwork().Error(), f.ErrorMessage())
}

func TestSubmittedIsTerminal(t *testing.T) {
	f := submission.NewFlow("c1", false, nil)
	require.NoError(t, f.Request())
	_, err := f.Confirm(nil)
	require.NoError(t, err)
	f.Finish(nil)
	assert.Equal(t, submission.StateSubmitted, f.State())

	assert.True(t, srvcerror.HasCode(f.Request(), submission.ErrCodeAlreadySubmitted))
	_, err = f.AutoStart(nil)
	assert.True(t, srvcerror.HasCode(err, submission.ErrCodeAlreadySubmitted))
	f.Cancel()
	assert.Equal(t, submission.StateSubmitted, f.State())
}

func TestSubmitCmdAtMostOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	store := answers.NewStore()
	store.Set("1", num("1"))

	f := submission.NewFlow("c1", false, []string{"1"})
	cmd := submission.NewSubmitAnswersCmd(submission.SubmitAnswersCmdHandler{
		Flow:     f,
		Snapshot: store.Snapshot,
		Send: func(ctx context.Context, rec submission.Record) error {
			calls.Add(1)
			<-release
			return nil
		},
	})

	require.NoError(t, f.Request())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, cmd.Handle(ctx, submission.SubmitAnswersParams{}))
	}()
	require.Eventually(t, func() bool { return f.State() == submission.StateSubmitting }, timeout, tick)

	// second attempt while the first is in flight
	err := cmd.Handle(ctx, submission.SubmitAnswersParams{})
	assert.True(t, srvcerror.HasCode(err, submission.ErrCodeSubmitInFlight))

	close(release)
	wg.Wait()

	// and after it landed
	err = cmd.Handle(ctx, submission.SubmitAnswersParams{Auto: true})
	assert.True(t, srvcerror.HasCode(err, submission.ErrCodeAlreadySubmitted))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitCmdFailureThenRetry(t *testing.T) {
	var calls int
	var sent []submission.Record
	store := answers.NewStore()
	store.Set("1", num("1"))

	f := submission.NewFlow("c1", false, []string{"1"})
	cmd := submission.NewSubmitAnswersCmd(submission.SubmitAnswersCmdHandler{
		Flow:     f,
		Snapshot: store.Snapshot,
		Send: func(ctx context.Context, rec submission.Record) error {
			calls++
			sent = append(sent, rec)
			if calls == 1 {
				return srvcerror.ErrValidation("answer 1 must be an integer")
			}
			return nil
		},
		OnSubmitted: func(rec submission.Record) {
			assert.Equal(t, "2", rec.Entries[0].Answer.Value)
		},
	})
	ctx := context.Background()

	require.NoError(t, f.Request())
	err := cmd.Handle(ctx, submission.SubmitAnswersParams{})
	require.Error(t, err)
	assert.Equal(t, submission.StateIdle, f.State())
	assert.Equal(t, "answer 1 must be an integer", f.ErrorMessage())

	store.Set("1", num("2"))
	require.NoError(t, f.Request())
	require.NoError(t, cmd.Handle(ctx, submission.SubmitAnswersParams{}))
	assert.Equal(t, submission.StateSubmitted, f.State())
	assert.Equal(t, 2, calls)
	assert.NotEqual(t, sent[0].IdempotencyKey, sent[1].IdempotencyKey)
}
