package rest

import (
	"log/slog"
	"net/http"
	"time"
)

// NewRouter - health routes, match history and the websocket endpoint on one mux.
func NewRouter(logger *slog.Logger, wsPath string, ws http.Handler, history http.Handler) http.Handler {
	ping := NewPingHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", ping.RootHandler)
	mux.HandleFunc("GET /ping", ping.PingHandler)
	mux.Handle("GET /history/{roomId}", history)
	mux.Handle(wsPath, ws)

	return logRequests(logger, mux)
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	log := logger.With("component", "http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
