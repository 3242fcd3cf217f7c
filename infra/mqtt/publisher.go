package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/prosumer/core/dispatch"
	coremon "github.com/kilianp07/prosumer/core/monitoring"
	"github.com/kilianp07/prosumer/infra/logger"
	"github.com/kilianp07/prosumer/pkg/export"
)

// ErrNotConnected is returned when publishing on a closed publisher.
var ErrNotConnected = errors.New("mqtt client not connected")

// ScheduleMessage is the payload published for every finished run.
type ScheduleMessage struct {
	MessageID   string        `json:"message_id"`
	PublishedAt int64         `json:"published_at"`
	Report      export.Report `json:"report"`
}

// SchedulePublisher publishes run reports on <prefix>/<agent>/schedule.
type SchedulePublisher struct {
	cli     pahoClient
	prefix  string
	qos     byte
	retain  bool
	retries int
	backoff time.Duration
	logger  logger.Logger
}

// NewSchedulePublisher connects to the broker described by cfg.
func NewSchedulePublisher(cfg Config, log logger.Logger) (*SchedulePublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New("mqtt_publisher")
	}
	opts.OnConnect = func(_ paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
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
	return &SchedulePublisher{
		cli:     c,
		prefix:  cfg.TopicPrefix,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		retries: cfg.MaxRetries,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:  log,
	}, nil
}

// Topic returns the schedule topic of an agent.
func (p *SchedulePublisher) Topic(agent string) string {
	return fmt.Sprintf("%s/%s/schedule", p.prefix, agent)
}

// WriteResult publishes the report of res, retrying with exponential
// backoff. The last publish error is reported to the monitor.
func (p *SchedulePublisher) WriteResult(ctx context.Context, res dispatch.AgentResult) error {
	if p.cli == nil {
		return ErrNotConnected
	}
	msg := ScheduleMessage{
		MessageID:   uuid.NewString(),
		PublishedAt: time.Now().UnixMilli(),
		Report:      export.NewReport(res),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	topic := p.Topic(res.Agent)

	var publishErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published schedule %s of run %s to %s", msg.MessageID, res.RunID, topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	err = fmt.Errorf("publish %s: %w", topic, publishErr)
	coremon.CaptureException(err, map[string]string{"agent": res.Agent, "run_id": res.RunID, "module": "mqtt"})
	return err
}

// Close disconnects from the broker.
func (p *SchedulePublisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	p.cli = nil
}
