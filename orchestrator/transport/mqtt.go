// Package transport binds an Orchestrator to a real message broker: it
// forwards broker-observed topic and status messages into the orchestrator
// and publishes the orchestrator's fan-out decisions back onto the broker.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/ottojo/ros2-def/orchestrator"
)

// Config describes how to reach the broker and which topics this deployment
// tracks.
type Config struct {
	// Broker is the broker URL, e.g. "mqtt://localhost:1883" or
	// "mqtts://broker.example:8883".
	Broker string

	// ClientID identifies this connection to the broker.
	ClientID string

	// StatusTopic is the shared channel every node's status signal is
	// published on.
	StatusTopic string

	// TrackedTopics are the canonical topic names the binding subscribes to
	// on behalf of the completion tracker (external inputs and any topic a
	// modeled node publishes).
	TrackedTopics []string
}

// Binding connects an Orchestrator to an MQTT broker: inbound messages on
// TrackedTopics and StatusTopic are forwarded to the orchestrator, and the
// orchestrator's scheduler publishes fan-out payloads back through
// PublishIntercepted.
type Binding struct {
	cfg    Config
	occ    *orchestrator.Orchestrator
	logger *slog.Logger
	cm     *autopaho.ConnectionManager
}

// NewBinding constructs a Binding. Call Start to connect.
func NewBinding(cfg Config, occ *orchestrator.Orchestrator, logger *slog.Logger) *Binding {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binding{cfg: cfg, occ: occ, logger: logger}
}

// Start connects to the broker, subscribes to every tracked and status
// topic, and blocks until ctx is cancelled.
func (b *Binding) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(b.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse broker URL: %w", err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls: []*url.URL{brokerURL},
		KeepAlive:  30,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			b.logger.Info("transport connected", "broker", b.cfg.Broker)
			b.subscribe(context.Background(), cm)
		},
		OnConnectError: func(err error) {
			b.logger.Warn("transport connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: b.cfg.ClientID,
		},
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	b.cm = cm

	cm.AddOnPublishReceived(func(pr autopaho.PublishReceived) (bool, error) {
		b.handleMessage(pr.Packet.Topic, pr.Packet.Payload)
		return true, nil
	})

	connCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		b.logger.Warn("initial connection timed out, retrying in background", "error", err)
	}

	<-ctx.Done()
	return b.cm.Disconnect(context.Background())
}

func (b *Binding) subscribe(ctx context.Context, cm *autopaho.ConnectionManager) {
	topics := append(append([]string(nil), b.cfg.TrackedTopics...), b.cfg.StatusTopic)
	opts := make([]paho.SubscribeOptions, 0, len(topics))
	for _, topic := range topics {
		opts = append(opts, paho.SubscribeOptions{Topic: topic, QoS: 0})
	}
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{Subscriptions: opts}); err != nil {
		b.logger.Error("subscribe failed", "error", err, "topics", topics)
		return
	}
	b.logger.Info("subscribed", "topics", topics)
}

func (b *Binding) handleMessage(topic string, payload []byte) {
	ctx := context.Background()
	if topic == b.cfg.StatusTopic {
		var node string
		if err := statusNode(payload, &node); err != nil {
			b.logger.Warn("malformed status message", "error", err)
			return
		}
		if err := b.occ.OnStatusMessage(ctx, node); err != nil {
			b.logger.Warn("status message rejected", "node", node, "error", err)
		}
		return
	}

	if err := b.occ.OnTopicMessage(ctx, topic, payload); err != nil {
		b.logger.Warn("topic message rejected", "topic", topic, "error", err)
	}
}

// PublishIntercepted implements orchestrator.Publisher by publishing payload
// to topic (an intercepted fan-out topic) on the broker.
func (b *Binding) PublishIntercepted(ctx context.Context, topic string, payload []byte) error {
	if b.cm == nil {
		return fmt.Errorf("transport: not connected")
	}
	_, err := b.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: payload,
		QoS:     0,
	})
	return err
}

// TriggerTimer implements orchestrator.TimerTrigger by publishing a trigger
// message carrying timestamp to node's dedicated timer-trigger topic. The
// node's runtime is expected to subscribe to this topic, run its timer
// callback, and report completion the normal way (status or topic message).
func (b *Binding) TriggerTimer(ctx context.Context, node string, _ orchestrator.TimerInput, timestamp int64) {
	if b.cm == nil {
		b.logger.Warn("timer trigger dropped, not connected", "node", node)
		return
	}
	topic := node + "/timer_trigger"
	payload := strconv.FormatInt(timestamp, 10)
	if _, err := b.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: []byte(payload),
		QoS:     0,
	}); err != nil {
		b.logger.Warn("timer trigger publish failed", "node", node, "error", err)
	}
}

// statusNode extracts the publishing node's name from a status payload. The
// wire format is the bare node name as UTF-8 bytes; this indirection exists
// so a richer status envelope can replace it without touching call sites.
func statusNode(payload []byte, node *string) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty status payload")
	}
	*node = string(payload)
	return nil
}
