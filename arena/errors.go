package arena

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/arena/srvcerror"
)

const ErrCodeSessionLocked = "session_locked"

func ErrSessionLocked() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionLocked,
		"answers were submitted and can no longer be changed",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeUnknownProblem = "unknown_problem"

func ErrUnknownProblem(problemID string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUnknownProblem,
		fmt.Sprintf("problem %q is not part of this contest", problemID),
	).SetHttpStatusCode(http.StatusBadRequest)
}
