package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jonathan/grant-portal/internal/grants"
	"github.com/jonathan/grant-portal/internal/types"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// envelope is the body of every API response.
type envelope struct {
	Success    bool               `json:"success"`
	Data       any                `json:"data,omitempty"`
	Message    string             `json:"message,omitempty"`
	Error      string             `json:"error,omitempty"`
	Count      *int               `json:"count,omitempty"`
	Total      *int               `json:"total,omitempty"`
	Pagination *grants.Pagination `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// respondCollection writes an unpaginated list.
func respondCollection[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	count := len(items)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Count: &count})
}

func respondList(w http.ResponseWriter, list *grants.List) {
	count := len(list.Applications)
	total := list.Total
	pg := list.Pagination
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       list.Applications,
		Count:      &count,
		Total:      &total,
		Pagination: &pg,
	})
}

// respondError maps err to a status and writes it. Server errors are logged
// with the request id.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("request_id", requestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	writeJSON(w, status, envelope{Success: false, Error: publicMessage(err, status)})
}

// decodeJSON reads a JSON body into dst. Malformed bodies are validation
// errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return types.NewValidation("body", "Request body too large")
		case errors.Is(err, io.EOF):
			return types.NewValidation("body", "Request body is required")
		default:
			return types.NewValidation("body", fmt.Sprintf("Invalid request body: %v", err))
		}
	}
	return nil
}

// pageFromQuery reads ?page= and ?limit=. Unparseable values fall back to
// the defaults.
func pageFromQuery(r *http.Request) grants.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return grants.NewPage(page, limit)
}
