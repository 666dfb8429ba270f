package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/saveblush/reraw-feeds/core/utils"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
)

const writeTimeout = 10 * time.Second

// change notification pushed to websocket clients, they re-read over http
type change struct {
	Type string `json:"type"`
}

var changed = change{Type: "changed"}

// handleWebsocket one change message per coalesced controller tick
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Errorf("ws accept error: %s", err)
		return
	}

	ip := utils.GetIP(r)
	logger.Log.Infof("[connected] %s", ip)
	defer logger.Log.Infof("[disconnect] %s", ip)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// clients only listen, reading handles close and ping frames
	ctx = conn.CloseRead(ctx)

	notify := make(chan struct{}, 1)
	stop := s.feeds.Observe(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer stop()

	ticker := time.NewTicker(s.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-notify:
			if err := s.write(ctx, conn, changed); err != nil {
				s.closeWith(conn, ip, err)
				return
			}
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				s.closeWith(conn, ip, err)
				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return wsjson.Write(wctx, conn, v)
}

func (s *Server) closeWith(conn *websocket.Conn, ip string, err error) {
	if !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) == -1 {
		logger.Log.Warnf("ws write error from %s: %s", ip, err)
	}
	conn.CloseNow()
}
