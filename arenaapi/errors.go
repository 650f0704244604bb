package arenaapi

import (
	"net/http"

	"github.com/programme-lv/arena/srvcerror"
)

func ErrNotSignedIn() *srvcerror.Error {
	return srvcerror.New(
		srvcerror.ErrCodeUnauthenticated,
		"you are not signed in",
	).SetHttpStatusCode(http.StatusUnauthorized)
}
