package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/presenter/http/render"
)

// Recoverer turns handler panics into 500 JSON responses. http.ErrAbortHandler is re-raised untouched.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			logging.LoggerFromContext(r.Context()).
				WithError(err).
				WithField("stack", string(debug.Stack())).
				Error("recovered panic in http handler")
			render.Error(w, r, fmt.Errorf("internal error: %w", err))
		}()
		next.ServeHTTP(w, r)
	})
}
