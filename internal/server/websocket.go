package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/rshaw/domainscope/internal/notify"
	"github.com/rshaw/domainscope/internal/registry"
)

type wsSubscribeMsg struct {
	ScanID string `json:"scan_id"`
}

// handleWebSocket streams progress events for one scan. The client sends a
// subscribe message first; the current registry state is replayed as the
// opening event so late subscribers never miss the latest checkpoint.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("ws accept error", "error", err)
		return
	}
	defer conn.CloseNow()

	_, data, err := conn.Read(r.Context())
	if err != nil {
		return
	}

	var msg wsSubscribeMsg
	if err := json.Unmarshal(data, &msg); err != nil || msg.ScanID == "" {
		conn.Close(websocket.StatusInvalidFramePayloadData, "invalid subscribe message")
		return
	}

	// Subscribe before reading the registry. The snapshot then reflects a
	// state no later than the subscription, so a scan finishing in between
	// shows up either in the snapshot or on the channel.
	sub := s.hub.Subscribe(msg.ScanID)
	defer s.hub.Unsubscribe(msg.ScanID, sub)

	rec, err := s.reg.Get(msg.ScanID)
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "scan not found")
		return
	}

	if err := s.writeEvent(r.Context(), conn, snapshotEvent(rec)); err != nil {
		return
	}
	if rec.Status != registry.StatusProcessing {
		conn.Close(websocket.StatusNormalClosure, "scan finished")
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "scan finished")
				return
			}
			if err := s.writeEvent(r.Context(), conn, ev); err != nil {
				return
			}
			if ev.Done {
				conn.Close(websocket.StatusNormalClosure, "scan finished")
				return
			}
		}
	}
}

func (s *Server) writeEvent(ctx context.Context, conn *websocket.Conn, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("ws write error", "error", err)
		return err
	}
	return nil
}

func snapshotEvent(rec *registry.ScanRecord) notify.Event {
	return notify.Event{
		ScanID:    rec.ID,
		Progress:  rec.Progress,
		Message:   rec.StatusMessage,
		Status:    string(rec.Status),
		Error:     rec.Error,
		Done:      rec.Status != registry.StatusProcessing,
		Timestamp: time.Now(),
	}
}
