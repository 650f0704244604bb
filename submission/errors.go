package submission

import (
	"net/http"

	"github.com/programme-lv/arena/srvcerror"
)

const ErrCodeAlreadySubmitted = "already_submitted"

func ErrAlreadySubmitted() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeAlreadySubmitted,
		"answers for this attempt have already been submitted",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeSubmitInFlight = "submit_in_flight"

func ErrSubmitInFlight() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSubmitInFlight,
		"submission is already in progress",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeNotConfirmed = "submit_not_confirmed"

func ErrNotConfirmed() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotConfirmed,
		"submission has to be confirmed first",
	).SetHttpStatusCode(http.StatusBadRequest)
}
