package alert

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpole/internal/dto"
	"smartpole/internal/logger"
	"smartpole/internal/model"
	"smartpole/internal/service/websocket"
)

type recordingPublisher struct {
	got []dto.AlertMessage
	err error
}

func (p *recordingPublisher) Publish(msg dto.AlertMessage) error {
	p.got = append(p.got, msg)
	return p.err
}

func TestFanout_PublishesToAll(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("bus down")}

	msg := dto.AlertMessage{Type: dto.AlertTypeAccident, EventID: "e1"}
	err := Fanout{failing, ok}.Publish(msg)

	assert.EqualError(t, err, "bus down")
	assert.Len(t, ok.got, 1, "a failing channel does not stop the others")
	assert.Len(t, failing.got, 1)

	assert.NoError(t, Fanout{}.Publish(msg))
}

func TestHubPublisher_DroppedAfterStop(t *testing.T) {
	log, err := logger.New(t.TempDir())
	require.NoError(t, err)
	defer log.Close()

	hub := websocket.NewHubService(log)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	p := NewHubPublisher(hub)
	assert.NoError(t, p.Publish(dto.AlertMessage{Type: dto.AlertTypeAccident}))

	cancel()
	<-stopped
	assert.ErrorIs(t, p.Publish(dto.AlertMessage{}), ErrDropped)
}

func TestAlertMessage_JSON(t *testing.T) {
	msg := dto.AlertMessage{
		Type:    dto.AlertTypeAccident,
		EventID: "e1",
		Entry:   model.AccidentLogEntry{Frame: 3, AlertStatus: model.SeverityWarning},
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "accident", raw["type"])
	entry := raw["entry"].(map[string]any)
	assert.Equal(t, "WARNING", entry["alert_status"])
}
