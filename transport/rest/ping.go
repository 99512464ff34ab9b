package rest

import "net/http"

type PingHandler interface {
	RootHandler(w http.ResponseWriter, _ *http.Request)
	PingHandler(w http.ResponseWriter, _ *http.Request)
}

type pingHandler struct{}

func NewPingHandler() PingHandler {
	return &pingHandler{}
}

func (that *pingHandler) RootHandler(w http.ResponseWriter, _ *http.Request) {
	writeText(w, "Server is running")
}

func (that *pingHandler) PingHandler(w http.ResponseWriter, _ *http.Request) {
	writeText(w, "pong")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
