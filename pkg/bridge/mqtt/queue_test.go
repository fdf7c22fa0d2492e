package mqtt

import (
	"sync"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type testMessage struct {
	topic   string
	payload []byte
}

func (m *testMessage) Duplicate() bool   { return false }
func (m *testMessage) Qos() byte         { return 0 }
func (m *testMessage) Retained() bool    { return false }
func (m *testMessage) Topic() string     { return m.topic }
func (m *testMessage) MessageID() uint16 { return 0 }
func (m *testMessage) Payload() []byte   { return m.payload }
func (m *testMessage) Ack()              {}

// testClient is an in-memory paho.Client.
type testClient struct {
	lock      sync.Mutex
	connected bool
	onConnect func(paho.Client)
	filters   map[string]paho.MessageHandler
	published []published
}

func newTestClient() *testClient {
	return &testClient{filters: make(map[string]paho.MessageHandler)}
}

func (c *testClient) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.connected
}

func (c *testClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *testClient) Connect() paho.Token {
	c.lock.Lock()
	c.connected = true
	c.lock.Unlock()
	if fn := c.onConnect; fn != nil {
		fn(c)
	}
	return &paho.DummyToken{}
}

func (c *testClient) Disconnect(uint) {
	c.lock.Lock()
	c.connected = false
	c.lock.Unlock()
}

func (c *testClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.published = append(c.published, published{
		topic: topic, payload: payload.([]byte), qos: qos, retained: retained,
	})
	return &paho.DummyToken{}
}

func (c *testClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.filters[topic] = callback
	return &paho.DummyToken{}
}

func (c *testClient) SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	for topic := range filters {
		c.filters[topic] = callback
	}
	return &paho.DummyToken{}
}

func (c *testClient) Unsubscribe(topics ...string) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, topic := range topics {
		delete(c.filters, topic)
	}
	return &paho.DummyToken{}
}

func (c *testClient) AddRoute(string, paho.MessageHandler) {}

func (c *testClient) OptionsReader() paho.ClientOptionsReader {
	return paho.ClientOptionsReader{}
}

func (c *testClient) deliver(topic string, payload []byte) {
	c.lock.Lock()
	var handlers []paho.MessageHandler
	for filter, h := range c.filters {
		if MatchTopic(topic, filter) {
			handlers = append(handlers, h)
		}
	}
	c.lock.Unlock()
	for _, h := range handlers {
		h(c, &testMessage{topic: topic, payload: payload})
	}
}

func (c *testClient) subscribed() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	var topics []string
	for topic := range c.filters {
		topics = append(topics, topic)
	}
	return topics
}

func (c *testClient) publishedMessages() []published {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]published(nil), c.published...)
}

func newTestQueue(prefix string) (*Queue, *testClient) {
	client := newTestClient()
	q := &Queue{Client: client, TopicPrefix: prefix}
	client.onConnect = q.OnConnectHandler
	return q, client
}

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic, pattern string
		match          bool
	}{
		{"b1/param/kp/set", "b1/param/+/set", true},
		{"b1/param/kp", "b1/param/+/set", false},
		{"b1/param/kp/set/x", "b1/param/+/set", false},
		{"b1/param/kp", "b1/param/kp", true},
		{"b1/param/kp/set", "b1/param/kp", false},
		{"b1/param/kp/set", "b1/#", true},
		{"b1", "b1/#", true},
		{"b2/meta", "b1/#", false},
		{"b2/meta", "+/meta", true},
	}
	for _, tc := range testCases {
		require.Equalf(t, tc.match, MatchTopic(tc.topic, tc.pattern), "%s ~ %s", tc.topic, tc.pattern)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://u:p@broker:1883/servo/?client-id=c1")
	require.NoError(t, err)
	require.Equal(t, "servo/", prefix)
	require.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	require.Equal(t, "u", opts.Username)
	require.Equal(t, "p", opts.Password)
	require.Equal(t, "c1", opts.ClientID)
}

func TestQueueSubBeforeConnect(t *testing.T) {
	q, client := newTestQueue("servo/")
	var got []string
	sub := q.Sub("b1/+", func(topic string, payload []byte) {
		got = append(got, topic+"="+string(payload))
	})
	require.Empty(t, client.subscribed())

	q.Connect()
	require.Equal(t, []string{"servo/b1/+"}, client.subscribed())
	client.deliver("servo/b1/x", []byte("1"))
	client.deliver("servo/b2/x", []byte("2"))
	require.Equal(t, []string{"b1/x=1"}, got)

	require.NoError(t, sub.Close())
	require.Empty(t, client.subscribed())
}

func TestQueueSharedPattern(t *testing.T) {
	q, client := newTestQueue("")
	q.Connect()
	var n1, n2 int
	s1 := q.Sub("a/b", func(string, []byte) { n1++ })
	q.Sub("a/b", func(string, []byte) { n2++ })
	client.deliver("a/b", nil)
	require.NoError(t, s1.Close())
	require.Equal(t, []string{"a/b"}, client.subscribed())
	client.deliver("a/b", nil)
	require.Equal(t, 1, n1)
	require.Equal(t, 2, n2)
}
