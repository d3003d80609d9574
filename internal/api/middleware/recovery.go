package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/api/response"
)

// Recovery returns middleware that turns a panic into a 500 INTERNAL_ERROR
// envelope and logs it with its stack.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("request_id", requestID),
					zap.String("request_path", r.URL.Path),
					zap.String("request_method", r.Method),
					zap.ByteString("stack", debug.Stack()),
				)
				response.Internal(w, requestID)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
