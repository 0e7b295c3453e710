package app

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

// doneToken is an already-completed MQTT token.
type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type publication struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeClient records publishes and subscriptions. Methods it does not
// override panic through the nil embedded interface.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	pubs         []publication
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeClient) IsConnected() bool { return true }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pubs = append(f.pubs, publication{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (f *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = cb
	return doneToken{}
}

func (f *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	for _, t := range topics {
		delete(f.handlers, t)
	}
	return doneToken{}
}

func (f *fakeClient) handler(topic string) mqtt.MessageHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[topic]
}

func (f *fakeClient) published(topic string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, p := range f.pubs {
		if p.topic == topic {
			out = append(out, p.payload)
		}
	}
	return out
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

// collectSink records samples from a source under a lock.
type collectSink struct {
	mu          sync.Mutex
	orientation []sensor.OrientationSample
	motion      []sensor.AccelerationSample
}

func (c *collectSink) Orientation(o sensor.OrientationSample) {
	c.mu.Lock()
	c.orientation = append(c.orientation, o)
	c.mu.Unlock()
}

func (c *collectSink) Motion(m sensor.AccelerationSample) {
	c.mu.Lock()
	c.motion = append(c.motion, m)
	c.mu.Unlock()
}

func (c *collectSink) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orientation), len(c.motion)
}
