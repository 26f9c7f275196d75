// Package mqtt publishes registry change notifications to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/featserve/config"
	"github.com/kilianp07/featserve/infra/logger"
	"github.com/kilianp07/featserve/infra/monitoring"
	"github.com/kilianp07/featserve/registry"
)

// DefaultTopic receives notifications when no topic is configured.
const DefaultTopic = "featserve/registry"

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Message is the JSON payload published for each registry change.
type Message struct {
	ID               string    `json:"id"`
	Location         string    `json:"location"`
	Checksum         string    `json:"checksum,omitempty"`
	PreviousChecksum string    `json:"previous_checksum,omitempty"`
	Changed          bool      `json:"changed"`
	Size             int       `json:"size"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Notifier publishes registry events.
type Notifier struct {
	cli        pahoClient
	topic      string
	qos        byte
	retain     bool
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
}

// NewClientOptions builds mqtt client options from the notifications section.
func NewClientOptions(cfg config.MQTTConfig) *paho.ClientOptions {
	id := cfg.ClientID
	if id == "" {
		id = "featserve-" + uuid.NewString()
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(id)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	return opts
}

// NewNotifier connects to the configured broker.
func NewNotifier(cfg config.MQTTConfig) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mqtt notifier: no broker configured")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt notifier: invalid qos %d", cfg.QoS)
	}
	log := logger.New("mqtt-notifier")
	opts := NewClientOptions(cfg)
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return &Notifier{
		cli:        c,
		topic:      topic,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		log:        log,
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
	}, nil
}

// Notify publishes ev, retrying with exponential backoff.
func (n *Notifier) Notify(ev registry.Event) error {
	msg := Message{
		ID:               ev.ID,
		Location:         ev.Location,
		Checksum:         ev.Checksum,
		PreviousChecksum: ev.PreviousChecksum,
		Changed:          ev.Changed,
		Size:             ev.Size,
		Timestamp:        ev.Time.UTC(),
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	var publishErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		token := n.cli.Publish(n.topic, n.qos, n.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			n.log.Infof("published registry event %s to %s", ev.ID, n.topic)
			return nil
		}
		n.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < n.maxRetries {
			time.Sleep(n.backoff * time.Duration(1<<attempt))
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": n.topic})
	return publishErr
}

// Run publishes every changed or failed refresh received on events until
// ctx is canceled or the channel is closed.
func (n *Notifier) Run(ctx context.Context, events <-chan registry.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.Changed && ev.Err == nil {
				continue
			}
			_ = n.Notify(ev)
		}
	}
}

// Close gracefully closes the MQTT connection.
func (n *Notifier) Close() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
