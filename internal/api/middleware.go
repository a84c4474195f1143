package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/negroni"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-Id"

// Wrap puts the router behind panic recovery and request logging.
func Wrap(router http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	recovery := negroni.NewRecovery()
	recovery.PrintStack = false
	recovery.Logger = zap.NewStdLog(logger)

	n := negroni.New()
	n.Use(recovery)
	n.Use(requestLogger(logger))
	n.UseHandler(router)
	return n
}

func requestLogger(logger *zap.Logger) negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		next(w, r)

		status := http.StatusOK
		if rw, ok := w.(negroni.ResponseWriter); ok && rw.Status() != 0 {
			status = rw.Status()
		}
		logger.Info("request",
			zap.String("request-id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("took", time.Since(start)))
	}
}
