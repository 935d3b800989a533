package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"
)

// Handler upgrades requests and subscribes them to the hub. origins are the
// same values the CORS layer allows; "*" accepts any origin.
func Handler(hub *Hub, origins []string, logger *slog.Logger) http.HandlerFunc {
	opts := acceptOptions(origins)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			logger.Warn("feed accept failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		logger.Debug("feed client connected", "remote", r.RemoteAddr)
		NewClient(hub, conn).Run(r.Context())
		logger.Debug("feed client disconnected", "remote", r.RemoteAddr)
	}
}

func acceptOptions(origins []string) *ws.AcceptOptions {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return &ws.AcceptOptions{InsecureSkipVerify: true}
		}
		// coder/websocket matches on host only.
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		hosts = append(hosts, strings.TrimSuffix(o, "/"))
	}
	return &ws.AcceptOptions{OriginPatterns: hosts}
}
