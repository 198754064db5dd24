package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"programaxis/internal/tech"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type buyNodeDTO struct {
	Node string `json:"node"`
}

type payDebtDTO struct {
	Amount float64 `json:"amount"`
}

type setAutoShipDTO struct {
	On bool `json:"on"`
}

type ackMsg struct {
	Type string  `json:"type"`
	Cmd  string  `json:"cmd"`
	OK   bool    `json:"ok"`
	Gain float64 `json:"gain,omitempty"`
}

func (a *App) serveWS(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		player = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sess, err := a.hub.Acquire(player)
	if err != nil {
		a.log.Error("session acquire failed", zap.String("player", player), zap.Error(err))
		return
	}
	defer a.hub.Release(player)

	a.log.Info("player connected", zap.String("player", player))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Gorilla connections allow one writer at a time; the state pusher and
	// the command acks share this lock.
	var writeMu sync.Mutex
	send := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	// Writer: push the full state at the update rate. The state is small
	// enough that deltas are not worth the bookkeeping.
	go func() {
		ticker := time.NewTicker(time.Duration(1000.0/a.cfg.UpdateRateHz) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				msg := buildState(player, sess, a.milestones, now)
				if err := send(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Reader: dispatch intents. Unknown or malformed commands are dropped,
	// never fatal to the connection.
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			a.log.Info("player disconnected", zap.String("player", player))
			return
		}
		switch inbound.Type {
		case "click":
			sess.Click()
		case "ship_now":
			gain := sess.ShipNow()
			_ = send(ackMsg{Type: "ack", Cmd: "ship_now", OK: true, Gain: gain})
		case "buy_node":
			var payload buyNodeDTO
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				a.log.Warn("invalid buy_node payload", zap.String("player", player), zap.Error(err))
				continue
			}
			ok := sess.BuyNode(tech.NodeID(payload.Node))
			_ = send(ackMsg{Type: "ack", Cmd: "buy_node", OK: ok})
		case "pay_debt":
			var payload payDebtDTO
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				a.log.Warn("invalid pay_debt payload", zap.String("player", player), zap.Error(err))
				continue
			}
			paid := sess.PayDownTechDebt(payload.Amount)
			_ = send(ackMsg{Type: "ack", Cmd: "pay_debt", OK: paid > 0, Gain: paid})
		case "set_auto_ship":
			var payload setAutoShipDTO
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				a.log.Warn("invalid set_auto_ship payload", zap.String("player", player), zap.Error(err))
				continue
			}
			sess.SetAutoShip(payload.On)
		default:
			a.log.Warn("unknown message type", zap.String("player", player), zap.String("type", inbound.Type))
		}
	}
}
