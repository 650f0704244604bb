package arenafake

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/arena/srvcerror"
)

const (
	ErrCodeWrongCredentials    = "wrong_credentials"
	ErrCodeUsernameTaken       = "username_taken"
	ErrCodeInvalidRefreshToken = "invalid_refresh_token"
	ErrCodeUnknownProblem      = "unknown_problem"
)

func ErrWrongCredentials() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeWrongCredentials,
		"wrong username or password",
	).SetHttpStatusCode(http.StatusUnauthorized)
}

func ErrUsernameTaken() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUsernameTaken,
		"username is already taken",
	).SetHttpStatusCode(http.StatusConflict)
}

func ErrInvalidRefreshToken() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidRefreshToken,
		"refresh token is invalid or has been used",
	).SetHttpStatusCode(http.StatusUnauthorized)
}

func ErrContestNotFound(id string) *srvcerror.Error {
	return srvcerror.ErrNotFound(fmt.Sprintf("contest %q not found", id))
}

func ErrUnknownProblem(problemID string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUnknownProblem,
		fmt.Sprintf("problem %q is not part of this contest", problemID),
	).SetHttpStatusCode(http.StatusBadRequest)
}
