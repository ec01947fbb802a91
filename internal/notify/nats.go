package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"sensorwatch/internal/config"
	"sensorwatch/internal/domain"

	"github.com/nats-io/nats.go"
)

// NATSSender publishes emitted notifications to one NATS subject so other
// dashboard consumers can subscribe to the alert stream.
// Params: server URLs and destination subject.
// Returns: nats delivery channel with lazy connection.
type NATSSender struct {
	mu         sync.Mutex
	urls       string
	subject    string
	conn       *nats.Conn
	capability staticCapability
}

// NewNATSSender creates nats sender from channel config.
// Params: nats channel config.
// Returns: sender; connection is established on first send.
func NewNATSSender(cfg config.NATSNotifier) *NATSSender {
	return &NATSSender{
		urls:       strings.Join(cfg.URL, ","),
		subject:    cfg.Subject,
		capability: staticCapability{supported: true, permission: PermissionGranted},
	}
}

// Channel returns sender channel name.
// Params: none.
// Returns: static channel key.
func (s *NATSSender) Channel() string {
	return config.NotifyChannelNATS
}

// Capability returns the sender's permission gate.
// Params: none.
// Returns: always-granted capability.
func (s *NATSSender) Capability() Capability {
	return s.capability
}

// Send publishes one notification as JSON to the configured subject.
// Params: context (connection-level timeouts apply) and payload.
// Returns: connect, encode, or publish error.
func (s *NATSSender) Send(_ context.Context, notification domain.Notification) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := conn.Publish(s.subject, payload); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// connection returns established connection, dialing on first use.
// Params: none.
// Returns: live connection or dial error.
func (s *NATSSender) connection() (*nats.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil && s.conn.IsConnected() {
		return s.conn, nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	conn, err := nats.Connect(s.urls,
		nats.Name("sensorwatch-notify"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	s.conn = conn
	return conn, nil
}

// Close releases the NATS connection.
// Params: none.
// Returns: nil.
func (s *NATSSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	return nil
}
