package arenafake

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/arena/arenaapi"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/httpjson"
	"github.com/programme-lv/arena/srvcerror"
	"github.com/programme-lv/arena/submission"
)

func (s *Server) getContest(w http.ResponseWriter, r *http.Request) {
	if auth.ClaimsFromContext(r.Context()) == nil {
		httpjson.HandleError(s.log, w, srvcerror.ErrUnauthenticated())
		return
	}
	id := chi.URLParam(r, "contestID")

	s.mu.Lock()
	e, ok := s.contests[id]
	if !ok {
		s.mu.Unlock()
		httpjson.HandleError(s.log, w, ErrContestNotFound(id))
		return
	}
	view := e.view()
	s.mu.Unlock()

	httpjson.WriteSuccessJson(w, view)
}

func (s *Server) postRegister(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httpjson.HandleError(s.log, w, srvcerror.ErrUnauthenticated())
		return
	}
	id := chi.URLParam(r, "contestID")

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.contests[id]
	if !ok {
		httpjson.HandleError(s.log, w, ErrContestNotFound(id))
		return
	}
	e.participant(claims.UUID, claims.Username)
	s.log.Info("registered participant", "contest", id, "username", claims.Username)

	httpjson.WriteSuccessJson(w, nil)
}

func (s *Server) postSubmit(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httpjson.HandleError(s.log, w, srvcerror.ErrUnauthenticated())
		return
	}

	var request arenaapi.BulkSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	key := r.Header.Get("Idempotency-Key")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitCalls++
	if s.failNext > 0 {
		s.failNext--
		httpjson.HandleError(s.log, w, srvcerror.ErrValidation(s.failMsg))
		return
	}

	if key != "" && s.seenKeys[key] {
		s.log.Info("dropping replayed submission", "key", key)
		httpjson.WriteSuccessJson(w, nil)
		return
	}

	e, ok := s.contests[request.ContestID]
	if !ok {
		httpjson.HandleError(s.log, w, ErrContestNotFound(request.ContestID))
		return
	}
	for _, sub := range request.Submissions {
		if _, _, ok := e.contest.ProblemByID(sub.ProblemID); !ok {
			httpjson.HandleError(s.log, w, ErrUnknownProblem(sub.ProblemID))
			return
		}
	}

	attempt := attemptKey(request.ContestID, claims.UUID, request.IsVirtual)
	p, registered := e.participants[claims.UUID]
	if _, ok := s.recorded[attempt]; ok || (!request.IsVirtual && registered && p.IsSubmitted) {
		httpjson.HandleError(s.log, w, submission.ErrAlreadySubmitted())
		return
	}
	s.recorded[attempt] = request
	if key != "" {
		s.seenKeys[key] = true
	}
	if !request.IsVirtual {
		e.participant(claims.UUID, claims.Username).IsSubmitted = true
	}

	s.log.Info("recorded submission",
		"contest", request.ContestID,
		"username", claims.Username,
		"virtual", request.IsVirtual,
		"answers", len(request.Submissions))

	httpjson.WriteSuccessJson(w, nil)
}
