// Package mqtt broadcasts every reading to an MQTT topic.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/livetemp/internal/storage"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	// quiesce is how long Disconnect waits for in-flight work, in milliseconds
	quiesce = 250
)

// Publisher is the subset of the paho client the engine needs
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Message is the JSON payload published for each reading
type Message struct {
	SessionID string    `json:"session_id"`
	Temp      float64   `json:"temp"`
	Timestamp time.Time `json:"timestamp"`
	Flag      string    `json:"flag,omitempty"`
}

// Storage publishes readings to a broker
type Storage struct {
	client  Publisher
	topic   string
	qos     byte
	session types.Session
	logger  *zap.SugaredLogger
}

// New connects to the configured broker
func New(c config.MQTTData, session types.Session, logger *zap.SugaredLogger) (*Storage, error) {
	opts := paho.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(c.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	if c.Username != "" {
		opts.SetUsername(c.Username)
		opts.SetPassword(c.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", c.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker %s: %w", c.Broker, err)
	}

	return NewWithClient(client, c, session, logger), nil
}

// NewWithClient builds the engine around an already-connected client
func NewWithClient(client Publisher, c config.MQTTData, session types.Session, logger *zap.SugaredLogger) *Storage {
	return &Storage{
		client:  client,
		topic:   c.Topic,
		qos:     c.QoS,
		session: session,
		logger:  logger.Named("mqtt").With("topic", c.Topic),
	}
}

// StartStorageEngine creates a goroutine loop to receive readings and publish them
func (m *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Reading {
	m.logger.Info("starting MQTT storage engine...")
	readingChan := make(chan types.Reading, storage.ReadingBufferSize)

	wg.Add(1)
	go m.processReadings(ctx, wg, readingChan)
	return readingChan
}

func (m *Storage) processReadings(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.Reading) {
	defer wg.Done()
	defer m.client.Disconnect(quiesce)

	for {
		select {
		case r := <-rchan:
			if err := m.PublishReading(r); err != nil {
				m.logger.Errorw("could not publish reading", "error", err)
			}
		case <-ctx.Done():
			m.logger.Info("cancellation request received.  Cancelling readings processor.")
			return
		}
	}
}

// PublishReading sends one reading and waits for the broker to acknowledge it
func (m *Storage) PublishReading(r types.Reading) error {
	payload, err := EncodeMessage(m.session, r)
	if err != nil {
		return err
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", m.topic)
	}
	return token.Error()
}

// EncodeMessage renders the JSON payload for a reading
func EncodeMessage(session types.Session, r types.Reading) ([]byte, error) {
	payload, err := json.Marshal(Message{
		SessionID: session.ID.String(),
		Temp:      r.Value,
		Timestamp: r.Timestamp,
		Flag:      string(r.Flag),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal reading: %w", err)
	}
	return payload, nil
}
