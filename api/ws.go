package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"section-presets/editor"
	"section-presets/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type  string         `json:"type"`
	State *session.State `json:"state,omitempty"`
	Event *editor.Event  `json:"event,omitempty"`
}

func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Serialise all WebSocket writes; gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeMsg := func(msg wsMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	outChan := session.NewClientChan()
	kick := s.SetClient(outChan) // kicks any prior client
	defer s.ClearClient(outChan) // closes outChan + clears session state if still owner

	// Start from a full snapshot; later events are deltas on top of it.
	st := s.State()
	if err := writeMsg(wsMessage{Type: "state", State: &st}); err != nil {
		log.Printf("WS state replay error: %v", err)
		return
	}

	// Goroutine: pump editor events to client.
	// Exits when ClearClient closes outChan.
	go func() {
		for ev := range outChan {
			ev := ev
			if err := writeMsg(wsMessage{Type: "event", Event: &ev}); err != nil {
				return
			}
		}
	}()

	// Goroutine: watch for session end or displacement and close the connection
	// so ReadMessage below unblocks immediately.
	connDone := make(chan struct{})
	go func() {
		select {
		case <-s.Done():
			writeMsg(wsMessage{Type: "closed"}) //nolint:errcheck
			conn.Close()
		case <-kick:
			// Displaced by a newer connection; no "closed" message since the
			// session itself is still alive.
			conn.Close()
		case <-connDone:
		}
	}()
	defer close(connDone)

	// The client never sends anything meaningful; reading only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
