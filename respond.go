package main

import (
	"encoding/json"
	"net/http"

	"cultivos/apperr"
)

type errorResp struct {
	Error         string   `json:"error"`
	Code          string   `json:"code"`
	MissingFields []string `json:"missing_fields,omitempty"`
	InvalidFields []string `json:"invalid_fields,omitempty"`
	RequestID     string   `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an AppError code to an HTTP status. Server-side failures
// are logged and their cause is not echoed to the client.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.GetCode(err)
	resp := errorResp{Code: code, RequestID: requestID(r)}

	var status int
	switch code {
	case apperr.CodeMissingFields:
		status = http.StatusBadRequest
		resp.Error = "missing required fields"
		resp.MissingFields = apperr.GetFields(err)
	case apperr.CodeValidationError:
		status = http.StatusBadRequest
		resp.Error = err.Error()
		resp.InvalidFields = apperr.GetFields(err)
	case apperr.CodeNotFound:
		status = http.StatusNotFound
		resp.Error = err.Error()
	case apperr.CodeConflict:
		status = http.StatusConflict
		resp.Error = err.Error()
	case apperr.CodeUnauthorized:
		status = http.StatusUnauthorized
		resp.Error = err.Error()
	case apperr.CodeTimeout:
		status = http.StatusGatewayTimeout
		resp.Error = "upstream timeout"
	case apperr.CodeExternalService:
		status = http.StatusBadGateway
		resp.Error = "upstream error"
	default:
		status = http.StatusInternalServerError
		resp.Error = "internal error"
		resp.Code = apperr.CodeInternalError
		if code == apperr.CodeDatabaseError {
			resp.Code = code
			resp.Error = "db error"
		}
	}
	if status >= 500 {
		a.log.Error("%s %s [%s]: %v", r.Method, r.URL.Path, resp.RequestID, err)
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("bad json")
	}
	return nil
}
