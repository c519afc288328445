package mesto

import (
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per request id back to the caller.
const RequestIDHeader = "X-Request-Id"

// routeLabel404 labels requests that matched no route.
const routeLabel404 = "unmatched"

// instrument logs and measures every request passing through router. The
// route template is resolved up front so metrics never see raw ids.
func instrument(router *mux.Router, logger *zap.Logger, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		route := routeLabel404
		var match mux.RouteMatch
		if router.Match(r, &match) && match.Route != nil && match.MatchErr == nil {
			if tpl, err := match.Route.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		m := httpsnoop.CaptureMetrics(router, w, r)

		if metrics != nil {
			metrics.ObserveRequest(r.Method, route, m.Code, m.Duration)
		}
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", m.Code),
			zap.Int64("bytes", m.Written),
			zap.Duration("duration", m.Duration),
			zap.String("remote", r.RemoteAddr),
		}
		switch {
		case m.Code >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case m.Duration > time.Second:
			logger.Warn("slow request", fields...)
		default:
			logger.Info("request", fields...)
		}
	})
}
