package submission

import (
	"context"
	"fmt"

	"github.com/programme-lv/arena/answers"
	"github.com/programme-lv/arena/logger"
	decorator "github.com/programme-lv/arena/srvccqs"
)

type SubmitAnswersCmd decorator.CmdHandler[SubmitAnswersParams]

type SubmitAnswersParams struct {
	// Auto is set when the countdown expired; no confirmation is needed.
	Auto bool
}

type SubmitAnswersCmdHandler struct {
	Flow        *Flow
	Snapshot    func() map[string]answers.Answer
	Send        func(ctx context.Context, rec Record) error
	OnSubmitted func(rec Record)
}

func NewSubmitAnswersCmd(h SubmitAnswersCmdHandler) SubmitAnswersCmd {
	return decorator.ApplyCmdDecorators[SubmitAnswersParams](h)
}

func (h SubmitAnswersCmdHandler) Handle(ctx context.Context, p SubmitAnswersParams) error {
	var rec Record
	var err error
	if p.Auto {
		rec, err = h.Flow.AutoStart(h.Snapshot())
	} else {
		rec, err = h.Flow.Confirm(h.Snapshot())
	}
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	if len(rec.Dropped) > 0 {
		log.Warn("dropping answers for problems outside the contest", "problem_ids", rec.Dropped)
	}
	log.Info("sending submission",
		"entries", len(rec.Entries),
		"idempotency_key", rec.IdempotencyKey,
		"virtual", rec.IsVirtual)

	err = h.Send(ctx, rec)
	h.Flow.Finish(err)
	if err != nil {
		return fmt.Errorf("failed to submit answers: %w", err)
	}

	if h.OnSubmitted != nil {
		h.OnSubmitted(rec)
	}
	return nil
}
