package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// MQTTPublisher implements interfaces.Publisher over an MQTT broker. All
// outbound messages are retained at QoS 0: at-most-once, fire-and-forget.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// NewMQTTPublisher connects to the broker and returns a ready publisher.
func NewMQTTPublisher(cfg common.MQTTConfig, logger arbor.ILogger) (*MQTTPublisher, error) {
	broker := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(common.NewClientID()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false).
		SetKeepAlive(60 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Str("broker", broker).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info().Str("broker", broker).Msg("MQTT connected")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeoutDuration()) {
		return nil, fmt.Errorf("timed out connecting to broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", broker, err)
	}

	var limiter *rate.Limiter
	if cfg.PublishRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.PublishRate), 1)
	}

	return &MQTTPublisher{
		client:  client,
		prefix:  cfg.TopicPrefix,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Publish sends a retained message to <prefix>/<suffix>.
func (p *MQTTPublisher) Publish(suffix string, payload interface{}) error {
	return p.PublishTopic(p.prefix+"/"+suffix, payload)
}

// PublishTopic sends a retained message to an absolute topic.
func (p *MQTTPublisher) PublishTopic(topic string, payload interface{}) error {
	body, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", topic, err)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(context.Background()); err != nil {
			return fmt.Errorf("publish rate limiter: %w", err)
		}
	}

	token := p.client.Publish(topic, 0, true, body)

	// QoS 0 tokens complete on the network write; surface late failures in
	// logs only, delivery is at-most-once from the caller's perspective.
	common.SafeGo(p.logger, "publish-wait", func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			p.logger.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	})

	return nil
}

// Subscribe registers a handler for messages on <prefix>/<suffix>.
func (p *MQTTPublisher) Subscribe(suffix string, handler interfaces.MessageHandler) error {
	topic := p.prefix + "/" + suffix

	token := p.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		handler(string(msg.Payload()))
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	p.logger.Info().Str("topic", topic).Msg("MQTT subscription active")
	return nil
}

// Close disconnects from the broker, allowing in-flight messages to drain.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

func encodePayload(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case int:
		return []byte(strconv.Itoa(v)), nil
	case int64:
		return []byte(strconv.FormatInt(v, 10)), nil
	case float64:
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	default:
		return json.Marshal(v)
	}
}
