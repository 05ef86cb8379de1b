package web

import (
	"net/http"
	"strings"
)

// ProtocolMiddleware adds headers that keep SSE connections stable
// behind proxies: HTTP/3 advertising is cleared globally and event
// endpoints force keep-alive HTTP/1.1 semantics.
func ProtocolMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", "clear")

		if strings.HasPrefix(r.URL.Path, "/api/events") {
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("Cache-Control", "no-cache, no-transform")
			w.Header().Set("X-Accel-Buffering", "no")
		}

		next.ServeHTTP(w, r)
	})
}
