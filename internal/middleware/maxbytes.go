package middleware

import "net/http"

// DefaultMaxBodyBytes caps request bodies at 64 KiB, plenty for a review.
const DefaultMaxBodyBytes = 64 << 10

// MaxBytes caps the body of requests that carry one. Reading past the cap
// fails, and the JSON decoder reports it as a bad request.
func MaxBytes(n int64) func(http.Handler) http.Handler {
	if n <= 0 {
		n = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
