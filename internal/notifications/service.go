package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"framereel/internal/config"
	"framereel/internal/logging"
)

// Service defines the notification surface exposed to the daemon and CLI.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	Close() error
}

// NewService builds a notification service from configuration. ntfy is used
// when a topic is configured and MQTT when enabled; with neither, a noop
// implementation is returned.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	if cfg == nil {
		return noopService{}
	}
	var targets []Service
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		targets = append(targets, NewNtfy(topic, timeout))
	}
	if cfg.MQTT.Enabled {
		targets = append(targets, NewMQTT(MQTTOptions{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
		}))
	}
	if len(targets) == 0 {
		return noopService{}
	}

	var inner Service
	if len(targets) == 1 {
		inner = targets[0]
	} else {
		inner = fanout(targets)
	}
	return &filtered{
		inner:  inner,
		allow:  allowedEvents(cfg.Notifications),
		logger: logging.NewComponentLogger(logger, "notifications"),
	}
}

func allowedEvents(n config.Notifications) map[Event]bool {
	return map[Event]bool{
		EventArtifactReady:     n.Artifact,
		EventAnalysisCompleted: n.Analysis,
		EventError:             n.Errors,
		EventTest:              true,
	}
}

type filtered struct {
	inner  Service
	allow  map[Event]bool
	logger *slog.Logger
}

func (f *filtered) Publish(ctx context.Context, event Event, payload Payload) error {
	if !f.allow[event] {
		f.logger.Debug("notification suppressed", logging.String("event", string(event)))
		return nil
	}
	return f.inner.Publish(ctx, event, payload)
}

func (f *filtered) Close() error { return f.inner.Close() }

// fanout delivers to every transport and joins their errors.
type fanout []Service

func (f fanout) Publish(ctx context.Context, event Event, payload Payload) error {
	var errs []error
	for _, svc := range f {
		if err := svc.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) Close() error {
	var errs []error
	for _, svc := range f {
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
func (noopService) Close() error                                  { return nil }
