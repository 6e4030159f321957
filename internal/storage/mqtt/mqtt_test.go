package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	messages     []published
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func testConfig() config.MQTTData {
	return config.MQTTData{Broker: "tcp://localhost:1883", Topic: "livetemp/readings", QoS: 1}
}

func TestPublishReading(t *testing.T) {
	client := &fakeClient{}
	session := types.NewSession(time.Now())
	m := NewWithClient(client, testConfig(), session, zap.NewNop().Sugar())

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := m.PublishReading(types.Reading{Value: 77.7, Timestamp: ts, Flag: types.FlagCooler}); err != nil {
		t.Fatalf("PublishReading() error: %v", err)
	}

	if client.count() != 1 {
		t.Fatalf("published %d messages, expected 1", client.count())
	}
	msg := client.messages[0]
	if msg.topic != "livetemp/readings" || msg.qos != 1 {
		t.Errorf("published to %q qos %d", msg.topic, msg.qos)
	}

	var got Message
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.SessionID != session.ID.String() || got.Temp != 77.7 || got.Flag != "cooler" || !got.Timestamp.Equal(ts) {
		t.Errorf("payload = %+v", got)
	}
}

func TestPublishReadingError(t *testing.T) {
	client := &fakeClient{err: errors.New("broker gone")}
	m := NewWithClient(client, testConfig(), types.NewSession(time.Now()), zap.NewNop().Sugar())

	if err := m.PublishReading(types.Reading{Value: 80}); err == nil {
		t.Error("expected the token error to be returned")
	}
}

func TestStorageEngineLoop(t *testing.T) {
	client := &fakeClient{}
	m := NewWithClient(client, testConfig(), types.NewSession(time.Now()), zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	c := m.StartStorageEngine(ctx, &wg)

	c <- types.Reading{Value: 70}
	c <- types.Reading{Value: 71}

	deadline := time.Now().Add(time.Second)
	for client.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	wg.Wait()

	if client.count() != 2 {
		t.Errorf("published %d messages, expected 2", client.count())
	}
	if !client.disconnected {
		t.Error("client was not disconnected on shutdown")
	}
}
