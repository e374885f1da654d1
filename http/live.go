package http

import (
	"net/http"
	"time"

	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// HandleLive streams status snapshots to a websocket client once per second
// until the client disconnects.
func HandleLive(status func() any) http.Handler {
	return websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()

			for {
				b, err := json.Marshal(status())
				if err != nil {
					return
				}
				if _, err := conn.Write(b); err != nil {
					return
				}

				<-ticker.C
			}
		},
	}
}
