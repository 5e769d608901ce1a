package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMillis  = 250
)

// ErrMQTTTimeout reports a broker that did not acknowledge in time.
var ErrMQTTTimeout = errors.New("mqtt timeout")

// MQTTOptions configures the MQTT publisher.
type MQTTOptions struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// mqttClient is the subset of paho.Client the publisher uses.
type mqttClient interface {
	Connect() paho.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
}

type mqttService struct {
	opts   MQTTOptions
	mu     sync.Mutex
	client mqttClient
	dial   func() mqttClient
}

// NewMQTT returns a Service that publishes JSON event documents to
// <prefix>/<event>[/<dataset>]. The broker connection is opened on first use
// and reconnects automatically afterwards.
func NewMQTT(opts MQTTOptions) Service {
	return newMQTTService(opts, func() mqttClient {
		clientOpts := paho.NewClientOptions().
			AddBroker(opts.BrokerURL).
			SetClientID(opts.ClientID).
			SetAutoReconnect(true).
			SetConnectRetry(false).
			SetKeepAlive(30 * time.Second)
		return paho.NewClient(clientOpts)
	})
}

func newMQTTService(opts MQTTOptions, dial func() mqttClient) *mqttService {
	opts.TopicPrefix = strings.Trim(strings.TrimSpace(opts.TopicPrefix), "/")
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "framereel"
	}
	if opts.QoS > 2 {
		opts.QoS = 1
	}
	return &mqttService{opts: opts, dial: dial}
}

// eventDocument is the JSON body published for every event.
type eventDocument struct {
	Event     Event     `json:"event"`
	Dataset   string    `json:"dataset,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message,omitempty"`
	Fields    Payload   `json:"fields,omitempty"`
}

// Topic returns the topic an event is published on.
func (m *mqttService) Topic(event Event, dataset string) string {
	topic := m.opts.TopicPrefix + "/" + string(event)
	if dataset = strings.TrimSpace(dataset); dataset != "" {
		topic += "/" + dataset
	}
	return topic
}

func (m *mqttService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	dataset := payload.text("dataset")
	doc := eventDocument{
		Event:     event,
		Dataset:   dataset,
		Timestamp: time.Now().UTC(),
		Title:     msg.title,
		Message:   msg.body,
		Fields:    stringifyErrors(payload),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode mqtt event: %w", err)
	}

	client, err := m.connect(ctx)
	if err != nil {
		return err
	}
	token := client.Publish(m.Topic(event, dataset), m.opts.QoS, false, body)
	return waitToken(ctx, token, mqttPublishTimeout, "publish")
}

func (m *mqttService) connect(ctx context.Context) (mqttClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil && m.client.IsConnected() {
		return m.client, nil
	}
	if m.client == nil {
		m.client = m.dial()
	}
	if err := waitToken(ctx, m.client.Connect(), mqttConnectTimeout, "connect"); err != nil {
		return nil, fmt.Errorf("mqtt broker %s: %w", m.opts.BrokerURL, err)
	}
	return m.client, nil
}

func (m *mqttService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(mqttQuiesceMillis)
	}
	m.client = nil
	return nil
}

func waitToken(ctx context.Context, token paho.Token, timeout time.Duration, op string) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt %s: %w", op, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrMQTTTimeout, op)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stringifyErrors replaces error values, which marshal as {}, with their text.
func stringifyErrors(payload Payload) Payload {
	if len(payload) == 0 {
		return nil
	}
	out := make(Payload, len(payload))
	for k, v := range payload {
		if err, ok := v.(error); ok {
			out[k] = err.Error()
			continue
		}
		out[k] = v
	}
	return out
}
