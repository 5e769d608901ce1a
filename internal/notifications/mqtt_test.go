package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func completedToken(err error) *fakeToken {
	done := make(chan struct{})
	close(done)
	return &fakeToken{err: err, done: done}
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	connectErr   error
	connected    bool
	connects     int
	disconnected bool
	messages     []published
}

func (c *fakeClient) Connect() paho.Token {
	c.connects++
	if c.connectErr != nil {
		return completedToken(c.connectErr)
	}
	c.connected = true
	return completedToken(nil)
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload any) paho.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return completedToken(nil)
}

func (c *fakeClient) Disconnect(uint) {
	c.connected = false
	c.disconnected = true
}

func TestMQTTPublishesEventDocument(t *testing.T) {
	client := &fakeClient{}
	svc := newMQTTService(MQTTOptions{BrokerURL: "tcp://broker:1883", TopicPrefix: "/lab/reel/", QoS: 1}, func() mqttClient { return client })

	ctx := context.Background()
	payload := Payload{"dataset": "demo", "frames": 3, "error": errors.New("ignored for ready")}
	if err := svc.Publish(ctx, EventArtifactReady, payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := svc.Publish(ctx, EventTest, nil); err != nil {
		t.Fatalf("Publish test: %v", err)
	}

	if client.connects != 1 {
		t.Fatalf("expected a single connect, got %d", client.connects)
	}
	if len(client.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(client.messages))
	}
	first := client.messages[0]
	if first.topic != "lab/reel/artifact_ready/demo" || first.qos != 1 {
		t.Fatalf("unexpected topic/qos: %s %d", first.topic, first.qos)
	}
	if client.messages[1].topic != "lab/reel/test" {
		t.Fatalf("unexpected test topic: %s", client.messages[1].topic)
	}

	var doc struct {
		Event   string         `json:"event"`
		Dataset string         `json:"dataset"`
		Message string         `json:"message"`
		Fields  map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(first.payload, &doc); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if doc.Event != "artifact_ready" || doc.Dataset != "demo" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if !strings.Contains(doc.Message, "GIF ready: demo") {
		t.Fatalf("unexpected message: %q", doc.Message)
	}
	if doc.Fields["error"] != "ignored for ready" {
		t.Fatalf("expected error field as text, got %#v", doc.Fields["error"])
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !client.disconnected {
		t.Fatal("expected disconnect on close")
	}
}

func TestMQTTConnectFailure(t *testing.T) {
	client := &fakeClient{connectErr: errors.New("connection refused")}
	svc := newMQTTService(MQTTOptions{BrokerURL: "tcp://broker:1883"}, func() mqttClient { return client })

	err := svc.Publish(context.Background(), EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected connect error, got %v", err)
	}
	if len(client.messages) != 0 {
		t.Fatal("no message should be published without a connection")
	}
	if got := svc.Topic(EventError, ""); got != "framereel/error" {
		t.Fatalf("unexpected default topic: %s", got)
	}
}

type recordingService struct {
	events []Event
	err    error
}

func (r *recordingService) Publish(_ context.Context, event Event, _ Payload) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingService) Close() error { return nil }

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	failing := &recordingService{err: errors.New("ntfy down")}
	ok := &recordingService{}
	svc := fanout{failing, ok}

	err := svc.Publish(context.Background(), EventError, Payload{"error": "x"})
	if err == nil || !strings.Contains(err.Error(), "ntfy down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.events) != 1 || len(failing.events) != 1 {
		t.Fatalf("expected delivery to every transport: %v %v", failing.events, ok.events)
	}
}
