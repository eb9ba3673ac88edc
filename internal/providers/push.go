package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/notify"
)

const maxConnectionsPerConsole = 10

// PushProvider broadcasts notifications to subscribed operator consoles over
// websockets. A console with no open connection simply misses the push; the
// alert record still carries the attempt.
type PushProvider struct {
	mu          sync.Mutex
	connections map[string]map[*websocket.Conn]bool // console id -> open sockets
	logger      *logging.Logger
}

// NewPush builds the push hub. It is always available; delivery fails only
// when no console is connected.
func NewPush(logger *logging.Logger) *PushProvider {
	return &PushProvider{
		connections: make(map[string]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

func (p *PushProvider) Name() string { return notify.ChannelPush }

// AddConnection registers a console socket, bounded per console.
func (p *PushProvider) AddConnection(console string, conn *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.connections[console]; !exists {
		p.connections[console] = make(map[*websocket.Conn]bool)
	}
	if len(p.connections[console]) >= maxConnectionsPerConsole {
		p.logger.Warnf("Max connections reached for console %s", console)
		return
	}
	p.connections[console][conn] = true
	p.logger.Infof("Console %s connected (%d sockets)", console, len(p.connections[console]))
}

// RemoveConnection drops a console socket.
func (p *PushProvider) RemoveConnection(console string, conn *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conns, exists := p.connections[console]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(p.connections, console)
		}
	}
}

// Send pushes the message to every socket of the recipient console. Sockets
// that error are dropped.
func (p *PushProvider) Send(_ context.Context, recipient string, msg notify.Message) error {
	payload, err := json.Marshal(map[string]string{
		"subject":  msg.Subject,
		"body":     msg.Body,
		"priority": msg.Priority,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	conns, exists := p.connections[recipient]
	if !exists || len(conns) == 0 {
		return fmt.Errorf("no console connected for %s", recipient)
	}

	delivered := 0
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			p.logger.Errorf("Push to console %s failed: %v", recipient, err)
			delete(conns, conn)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("all sockets for console %s failed", recipient)
	}
	return nil
}
