package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTClient is the production Client implementation, built on
// github.com/eclipse/paho.mqtt.golang. Reconnection is delegated entirely to
// the Paho client's own AutoReconnect/ConnectRetry machinery, matching
// spec.md §7's "retried by the transport" language.
type MQTTClient struct {
	client mqtt.Client
	logger *slog.Logger
}

// MQTTConfig configures a new MQTTClient.
type MQTTConfig struct {
	Host     string
	Port     int
	ClientID string

	// LastWillTopic/LastWillPayload, when LastWillTopic is non-empty, are
	// published by the broker on behalf of this client if it disconnects
	// uncleanly. Car controllers use this for elevator/{id}/status=offline.
	LastWillTopic   string
	LastWillPayload string
	LastWillQoS     byte

	ConnectTimeout time.Duration
}

// NewMQTTClient builds a Paho client configured per cfg. It does not connect;
// call Connect to establish the session.
func NewMQTTClient(cfg MQTTConfig, logger *slog.Logger) *MQTTClient {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(30 * time.Second)

	if cfg.LastWillTopic != "" {
		opts.SetWill(cfg.LastWillTopic, cfg.LastWillPayload, cfg.LastWillQoS, true)
	}

	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("connected to broker", slog.String("client_id", cfg.ClientID))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("lost connection to broker",
			slog.String("client_id", cfg.ClientID),
			slog.String("error", err.Error()))
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		logger.Info("reconnecting to broker", slog.String("client_id", cfg.ClientID))
	})

	return &MQTTClient{
		client: mqtt.NewClient(opts),
		logger: logger,
	}
}

// Connect blocks until the broker connection is established or ctx expires.
func (c *MQTTClient) Connect(ctx context.Context) error {
	token := c.client.Connect()
	deadline, ok := ctx.Deadline()
	if !ok {
		token.Wait()
		return token.Error()
	}
	if !token.WaitTimeout(time.Until(deadline)) {
		return ctx.Err()
	}
	return token.Error()
}

// Publish sends payload on topic. Errors are returned synchronously; the
// caller logs and continues rather than treating a publish failure as fatal.
func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Subscribe registers handler for topic (which may use `+`/`#` wildcards).
func (c *MQTTClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

// Disconnect closes the connection cleanly, giving the broker 250ms to flush
// in-flight publishes before dropping the session.
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250)
}
