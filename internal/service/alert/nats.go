package alert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"smartpole/internal/dto"
	"smartpole/internal/logger"
)

// NatsPublisher sends alerts to a NATS subject.
type NatsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *logger.Logger
}

// NewNatsPublisher connects to natsURL. The client keeps retrying in the
// background, so an unreachable server does not fail startup.
func NewNatsPublisher(natsURL, subject string, logger *logger.Logger) (*NatsPublisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("smartpole-detector"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warning("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", natsURL, err)
	}

	logger.Info("Alert publisher using NATS at %s, subject %q", natsURL, subject)
	return &NatsPublisher{conn: conn, subject: subject, logger: logger}, nil
}

func (p *NatsPublisher) Publish(msg dto.AlertMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// IsConnected reports whether the client currently has a server connection.
func (p *NatsPublisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close flushes pending alerts and disconnects.
func (p *NatsPublisher) Close() {
	if p.conn == nil {
		return
	}
	if p.conn.IsConnected() {
		if err := p.conn.FlushTimeout(2 * time.Second); err != nil {
			p.logger.Warning("NATS flush failed: %v", err)
		}
	}
	p.conn.Close()
	p.logger.Info("Disconnected from NATS")
}
