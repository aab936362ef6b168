package web

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-match/pkg/matchdto"
)

const streamWriteTimeout = 5 * time.Second

// StreamHandler upgrades to a websocket and pushes a view after every transition.
// The first frame is the current view.
func (s *Service) StreamHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		OriginPatterns:  s.origins,
	})
	if err != nil {
		s.logger.Warn("match_stream_accept_failed", zap.String("match_id", id), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	updates, unsubscribe := ctrl.Subscribe(32)
	defer unsubscribe()

	// the client never sends; CloseRead handles control frames and cancels ctx on close
	ctx := conn.CloseRead(r.Context())

	v, err := ctrl.View(ctx)
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "match stopped")
		return
	}
	if err := writeFrame(ctx, conn, s.pres.View(id, v, nil)); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ctrl.Done():
			conn.Close(websocket.StatusGoingAway, "match stopped")
			return
		case u, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			n := u.Notice
			if err := writeFrame(ctx, conn, s.pres.View(id, u.View, &n)); err != nil {
				s.logger.Debug("match_stream_write_failed", zap.String("match_id", id), zap.Error(err))
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, v matchdto.View) error {
	wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, v)
}
