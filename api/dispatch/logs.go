package dispatch

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// NewLogHandler returns an HTTP handler exposing dispatch history via
// GET /api/dispatch/logs. Requests must carry an Authorization header
// "Bearer <token>" when token is non-empty. Query parameters: room, target,
// since (RFC 3339) and limit.
func NewLogHandler(log *Log, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			if r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := Query{
			Room:   r.URL.Query().Get("room"),
			Target: r.URL.Query().Get("target"),
		}
		if s := r.URL.Query().Get("since"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, "since: not an RFC 3339 timestamp", http.StatusBadRequest)
				return
			}
			q.Since = t
		}
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, "limit: not a positive integer", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(log.Records(q)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
