package hostapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

// streamWriteTimeout bounds one snapshot write to a slow client.
const streamWriteTimeout = 2 * time.Second

// handleStream upgrades to a websocket. The server sends every snapshot as
// a text message; the page may send frames as binary messages (image bytes)
// or text messages (data URLs), which are pushed into the live feed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: localOriginPatterns})
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxFrameBytes)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snaps, unsubscribe := s.session.Subscribe()
	defer unsubscribe()

	go func() {
		defer cancel()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
					log.Debug().Err(err).Msg("Stream read ended")
				}
				return
			}
			if _, err := s.ingest(data); err != nil {
				log.Warn().Err(err).Int("bytes", len(data)).Msg("Dropped streamed frame")
			}
		}
	}()

	log.Debug().Str("remote", r.RemoteAddr).Msg("Stream connected")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("remote", r.RemoteAddr).Msg("Stream disconnected")
			return
		case snap, ok := <-snaps:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			msg, err := json.Marshal(snap)
			if err != nil {
				log.Error().Err(err).Msg("Failed to encode snapshot")
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, streamWriteTimeout)
			err = conn.Write(wctx, websocket.MessageText, msg)
			wcancel()
			if err != nil {
				return
			}
		}
	}
}
