package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/programme-lv/arena/srvcerror"
)

type JsonResponse struct {
	Status  string          `json:"status"` // "success" or "error"
	Data    json.RawMessage `json:"data,omitempty"`
	ErrCode string          `json:"code,omitempty"`
	ErrMsg  string          `json:"message,omitempty"`
}

type jsonResponseOut struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	ErrCode string `json:"code,omitempty"`
	ErrMsg  string `json:"message,omitempty"`
}

func WriteSuccessJson(w http.ResponseWriter, data any) {
	resp := jsonResponseOut{
		Status: "success",
		Data:   data,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func WriteErrorJson(w http.ResponseWriter, errMsg string, statusCode int, errCode string) {
	resp := jsonResponseOut{
		Status:  "error",
		ErrMsg:  errMsg,
		ErrCode: errCode,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func writeInternalErrorJson(w http.ResponseWriter) {
	WriteErrorJson(w,
		http.StatusText(http.StatusInternalServerError),
		http.StatusInternalServerError,
		srvcerror.ErrCodeInternalServerError)
}

func HandleError(logger *slog.Logger, w http.ResponseWriter, err error) {
	srvcErr := &srvcerror.Error{}
	if errors.As(err, &srvcErr) {
		if srvcErr.DebugInfo() != nil {
			logger.Warn("service error", "error", err, "debug", srvcErr.DebugInfo())
		} else {
			logger.Warn("service error", "error", err)
		}
		if srvcErr.HttpStatusCode() == http.StatusInternalServerError {
			logger.Error("internal server error", "error", err)
		}
		WriteErrorJson(w, srvcErr.Error(), srvcErr.HttpStatusCode(), srvcErr.ErrorCode())
		return
	} else {
		logger.Error("internal server error", "error", err)
		writeInternalErrorJson(w)
	}
}

// Decode reads an envelope from resp and unmarshals its data into out
// (out may be nil). Error envelopes and non-2xx statuses become
// *srvcerror.Error carrying the server message verbatim.
func Decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return srvcerror.ErrNetwork().SetDebug(fmt.Errorf("failed to read response body: %w", err))
	}

	var env JsonResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			if resp.StatusCode >= 300 {
				return srvcerror.FromHttpStatus(resp.StatusCode, "", "").
					SetDebug(fmt.Errorf("non-json error body: %q", truncate(body, 200)))
			}
			return srvcerror.ErrInternalSE().SetDebug(fmt.Errorf("failed to decode envelope: %w", err))
		}
	}

	if resp.StatusCode >= 300 || env.Status == "error" {
		status := resp.StatusCode
		if status < 300 {
			status = http.StatusBadRequest
		}
		return srvcerror.FromHttpStatus(status, env.ErrCode, env.ErrMsg)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return srvcerror.ErrInternalSE().SetDebug(fmt.Errorf("failed to decode data: %w", err))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
