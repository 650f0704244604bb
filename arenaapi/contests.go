package arenaapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/srvcerror"
	"github.com/programme-lv/arena/submission"
)

// GetContest loads a contest with its problems and participants.
func (c *Client) GetContest(ctx context.Context, id string, virtual bool) (contest.Contest, error) {
	path := "/contests/" + url.PathEscape(id)
	if virtual {
		path += "?virtual=true"
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return contest.Contest{}, err
	}
	var res contest.Contest
	if err := c.do(c.authed, req, &res); err != nil {
		return contest.Contest{}, err
	}
	if err := res.Validate(); err != nil {
		return contest.Contest{}, srvcerror.ErrValidation("the server sent an invalid contest").SetDebug(err)
	}
	return res, nil
}

func (c *Client) Register(ctx context.Context, id string) error {
	path := fmt.Sprintf("/contests/%s/register", url.PathEscape(id))
	req, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	return c.do(c.authed, req, nil)
}

type SubmissionEntry struct {
	ProblemID string `json:"problemId"`
	Answer    string `json:"answer"`
	Kind      string `json:"kind"`
}

type BulkSubmitRequest struct {
	ContestID   string            `json:"contestId"`
	Submissions []SubmissionEntry `json:"submissions"`
	IsVirtual   bool              `json:"isVirtual"`
}

func NewBulkSubmitRequest(rec submission.Record) BulkSubmitRequest {
	body := BulkSubmitRequest{
		ContestID:   rec.ContestID,
		Submissions: make([]SubmissionEntry, len(rec.Entries)),
		IsVirtual:   rec.IsVirtual,
	}
	for i, e := range rec.Entries {
		body.Submissions[i] = SubmissionEntry{
			ProblemID: e.ProblemID,
			Answer:    e.Answer.Value,
			Kind:      string(e.Answer.Kind),
		}
	}
	return body
}

// SubmitBulk sends the record. The idempotency key lets the server drop
// a replay of an attempt it already recorded.
func (c *Client) SubmitBulk(ctx context.Context, rec submission.Record) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/contests/submit", NewBulkSubmitRequest(rec))
	if err != nil {
		return err
	}
	req.Header.Set("Idempotency-Key", rec.IdempotencyKey.String())
	return c.do(c.authed, req, nil)
}
