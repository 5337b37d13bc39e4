package middleware

import (
	"net/http"
	"sync"
)

// Serialize runs the wrapped handlers one request at a time. The catalog and
// the drag coordinator model a single user interaction in flight.
func Serialize() func(http.Handler) http.Handler {
	var mu sync.Mutex
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}
