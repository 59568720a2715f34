package middleware

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/httpx"
)

const RequestIDHeader = "X-Basejump-Request-ID"

// RequestLogger attaches a logger carrying a fresh request id to the request context and
// logs the request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := log.With().Str("request_id", requestID).Logger().WithContext(r.Context())
		w.Header().Set(RequestIDHeader, requestID)

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		log.Ctx(ctx).Info().Fields(map[string]any{
			"requestURL":    fmt.Sprintf("%s://%s%s", scheme, r.Host, r.RequestURI),
			"requestMethod": r.Method,
			"remoteIP":      r.RemoteAddr,
		}).Msg("")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Ctx(r.Context()).Error().Msgf("panic occurred: %v", err)
				httpx.ErrApplicationError("unable to process request").Send(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
