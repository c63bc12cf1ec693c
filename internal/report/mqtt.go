package report

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/ipu69/gen2sim/internal/config"
	"github.com/ipu69/gen2sim/internal/logging"
)

// MQTT publishes one retained JSON message per Result to a configured
// topic, mirroring the teacher's connection.MQTT client setup applied
// to outbound publishing instead of inbound subscription.
type MQTT struct {
	broker string
	topic  string
	client paho.Client
	logger *zap.Logger
}

// NewMQTT builds an MQTT sink from cfg.Options (broker, topic,
// client_id, username, password) and connects immediately.
func NewMQTT(cfg config.OutputConfig) (*MQTT, error) {
	broker, _ := cfg.Options["broker"].(string)
	if broker == "" {
		return nil, fmt.Errorf("mqtt sink requires options.broker")
	}
	topic, _ := cfg.Options["topic"].(string)
	if topic == "" {
		topic = "gen2sim/results"
	}
	clientID, _ := cfg.Options["client_id"].(string)
	if clientID == "" {
		clientID = fmt.Sprintf("gen2sim-%d", time.Now().UnixNano())
	}

	logger := logging.With(zap.String("component", "report.mqtt"))

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if username, ok := cfg.Options["username"].(string); ok {
		opts.SetUsername(username)
	}
	if password, ok := cfg.Options["password"].(string); ok {
		opts.SetPassword(password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt sink: connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt sink: failed to connect: %w", err)
	}

	logger.Info("connected to MQTT broker", zap.String("broker", broker), zap.String("topic", topic))

	return &MQTT{broker: broker, topic: topic, client: client, logger: logger}, nil
}

func (m *MQTT) Send(result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	token := m.client.Publish(m.topic, 1, true, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt sink: publish timeout")
	}
	return token.Error()
}

func (m *MQTT) Close() error {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(1000)
	}
	return nil
}

func (m *MQTT) Name() string { return fmt.Sprintf("mqtt:%s", m.broker) }
