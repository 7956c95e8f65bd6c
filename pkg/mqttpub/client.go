// Package mqttpub publishes habitpred telemetry (training summaries and top
// predictions) to an MQTT broker. Disabled unless a broker is configured.
package mqttpub

import (
	"encoding/json"
	"fmt"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/habitpred/habitpred/pkg/engine"
	"github.com/habitpred/habitpred/pkg/logx"
)

// Config holds MQTT connection settings.
type Config struct {
	Broker      string `json:"broker"`
	Port        int    `json:"port"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         int    `json:"qos"`
	Retain      bool   `json:"retain"`
	Enabled     bool   `json:"enabled"`
}

// DefaultConfig returns default MQTT configuration.
func DefaultConfig() *Config {
	return &Config{
		Broker:      "localhost",
		Port:        1883,
		ClientID:    "habitpredd",
		TopicPrefix: "habitpred",
		QoS:         1,
		Retain:      false,
		Enabled:     false,
	}
}

// Client publishes JSON payloads under the configured topic prefix.
type Client struct {
	client      MQTT.Client
	logger      *logx.Logger
	config      *Config
	connected   bool
	lastPublish time.Time
}

// NewClient creates an MQTT client; call Connect before publishing.
func NewClient(config *Config, logger *logx.Logger) *Client {
	return &Client{
		logger: logger,
		config: config,
	}
}

// Connect establishes the broker connection with auto-reconnect. A disabled
// client connects to nothing and publishes nothing.
func (c *Client) Connect() error {
	if !c.config.Enabled {
		c.logger.Debug("mqtt client disabled")
		return nil
	}

	opts := MQTT.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", c.config.Broker, c.config.Port))
	opts.SetClientID(c.config.ClientID)

	if c.config.Username != "" {
		opts.SetUsername(c.config.Username)
		opts.SetPassword(c.config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(1 * time.Minute)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = MQTT.NewClient(opts)

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	c.logger.Info("mqtt client connected", "broker", c.config.Broker, "port", c.config.Port)
	return nil
}

// Disconnect closes the broker connection.
func (c *Client) Disconnect() {
	if c.client != nil && c.connected {
		c.client.Disconnect(250)
		c.connected = false
		c.logger.Info("mqtt client disconnected")
	}
}

func (c *Client) onConnect(client MQTT.Client) {
	c.connected = true
	c.logger.Info("mqtt connection established")
}

func (c *Client) onConnectionLost(client MQTT.Client, err error) {
	c.connected = false
	c.logger.Error("mqtt connection lost", "error", err.Error())
}

// PublishTrainingState publishes the outcome of a training attempt.
func (c *Client) PublishTrainingState(state engine.State) error {
	if !c.config.Enabled || !c.connected {
		return nil
	}
	topic := fmt.Sprintf("%s/training", c.config.TopicPrefix)
	return c.publishJSON(topic, map[string]interface{}{
		"timestamp": time.Now(),
		"state":     state,
	})
}

// PublishPredictions publishes today's and tomorrow's top predictions.
func (c *Client) PublishPredictions(preds engine.TopPredictions) error {
	if !c.config.Enabled || !c.connected {
		return nil
	}
	topic := fmt.Sprintf("%s/predictions", c.config.TopicPrefix)
	return c.publishJSON(topic, map[string]interface{}{
		"timestamp":   time.Now(),
		"predictions": preds,
	})
}

func (c *Client) publishJSON(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	token := c.client.Publish(topic, byte(c.config.QoS), c.config.Retain, data)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	c.lastPublish = time.Now()
	c.logger.Debug("mqtt message published", "topic", topic, "size", len(data))
	return nil
}

// IsConnected reports whether the client currently holds a connection.
func (c *Client) IsConnected() bool {
	return c.connected && c.client != nil && c.client.IsConnected()
}
