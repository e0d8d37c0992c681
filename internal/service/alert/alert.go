// Package alert delivers accident alerts to live viewers and the event bus.
package alert

import (
	"encoding/json"
	"errors"
	"fmt"

	"smartpole/internal/dto"
	"smartpole/internal/service/websocket"
)

// ErrDropped is returned when a channel could not accept the alert.
var ErrDropped = errors.New("alert dropped")

// Publisher sends one alert.
type Publisher interface {
	Publish(msg dto.AlertMessage) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(msg dto.AlertMessage) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HubPublisher broadcasts alerts to websocket viewers.
type HubPublisher struct {
	hub *websocket.HubService
}

func NewHubPublisher(hub *websocket.HubService) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(msg dto.AlertMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}
	if !p.hub.Broadcast(data) {
		return fmt.Errorf("websocket: %w", ErrDropped)
	}
	return nil
}
