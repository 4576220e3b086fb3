package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/events/bus"
	"github.com/wargrid/wargrid/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// streamedEvents are the bus event types pushed to websocket subscribers.
var streamedEvents = []string{
	battle.EventUnitMoved,
	battle.EventMoveRejected,
	battle.EventUnitDeployed,
	battle.EventPhaseChanged,
	battle.EventTurnEnded,
}

// handleEvents upgrades the request and forwards the battle's bus events to
// the client until it disconnects or the server stops.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotImplemented, "event stream disabled")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	s.trackSession(1)
	defer s.trackSession(-1)
	defer func() { _ = conn.Close() }()

	// One writer per connection; bus deliveries run on publisher
	// goroutines.
	var writeMu sync.Mutex
	send := func(ev bus.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		return conn.WriteJSON(EventFrame{Type: ev.Type, At: ev.At.UnixMilli(), Data: ev.Data})
	}

	subs := make([]*bus.Subscription, 0, len(streamedEvents))
	for _, eventType := range streamedEvents {
		subs = append(subs, s.events.SubscribeTopic(s.b.ID(), eventType, send))
	}
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
	}()

	s.logger.Debug("event stream opened", log.String("remote", conn.RemoteAddr().String()))

	// Reads only pump control frames; any read error means the client is
	// gone.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-s.stopChan:
	}
	s.logger.Debug("event stream closed", log.String("remote", conn.RemoteAddr().String()))
}
