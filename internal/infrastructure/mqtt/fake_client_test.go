package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is a paho Token completed by the test.
type fakeToken struct {
	done   chan struct{}
	once   sync.Once
	err    error
	result map[string]byte
}

func newFakeToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) complete(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

// fakeSubscribeToken also exposes SUBACK return codes.
type fakeSubscribeToken struct {
	*fakeToken
}

func (t fakeSubscribeToken) Result() map[string]byte { return t.result }

type fakePublish struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements pahomqtt.Client without a network.
type fakeClient struct {
	mu           sync.Mutex
	opts         *pahomqtt.ClientOptions
	connected    bool
	connectToken *fakeToken
	subToken     *fakeToken
	pubToken     *fakeToken
	subscribed   []string
	published    []fakePublish
	disconnects  []uint
}

func newFakeClient(opts *pahomqtt.ClientOptions) *fakeClient {
	return &fakeClient{
		opts:         opts,
		connectToken: newFakeToken(),
		subToken:     newFakeToken(),
		pubToken:     newFakeToken(),
	}
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *fakeClient) Connect() pahomqtt.Token { return c.connectToken }

func (c *fakeClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	c.connected = false
	c.disconnects = append(c.disconnects, quiesce)
	c.mu.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, _ := payload.([]byte)
	c.published = append(c.published, fakePublish{topic: topic, qos: qos, retained: retained, payload: b})
	return c.pubToken
}

func (c *fakeClient) Subscribe(topic string, _ byte, _ pahomqtt.MessageHandler) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = append(c.subscribed, topic)
	return fakeSubscribeToken{c.subToken}
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	t := newFakeToken()
	t.complete(nil)
	return t
}

func (c *fakeClient) Unsubscribe(...string) pahomqtt.Token {
	t := newFakeToken()
	t.complete(nil)
	return t
}

func (c *fakeClient) AddRoute(string, pahomqtt.MessageHandler) {}

func (c *fakeClient) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.NewOptionsReader(c.opts)
}

// simulateConnect marks the client connected and runs the OnConnect handler.
func (c *fakeClient) simulateConnect() {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.connectToken.complete(nil)
	c.opts.OnConnect(c)
}

func (c *fakeClient) simulateMessage(topic string, payload []byte) {
	c.opts.DefaultPublishHandler(c, &fakeMessage{topic: topic, payload: payload})
}

func (c *fakeClient) simulateLost(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.opts.OnConnectionLost(c, err)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakeDialer returns a Dialer whose clients are recorded in *clients.
func fakeDialer(clients *[]*fakeClient) *Dialer {
	var mu sync.Mutex
	return &Dialer{newClient: func(opts *pahomqtt.ClientOptions) pahomqtt.Client {
		mu.Lock()
		defer mu.Unlock()
		c := newFakeClient(opts)
		*clients = append(*clients, c)
		return c
	}}
}

// eventLog records listener callbacks in order.
type eventLog struct {
	mu     sync.Mutex
	events []string
	errs   []error
	notify chan struct{}
}

func newEventLog() *eventLog {
	return &eventLog{notify: make(chan struct{}, 64)}
}

func (l *eventLog) add(event string, err error) {
	l.mu.Lock()
	l.events = append(l.events, event)
	if err != nil {
		l.errs = append(l.errs, err)
	}
	l.mu.Unlock()
	l.notify <- struct{}{}
}

func (l *eventLog) listener() Listener {
	return Listener{
		OnConnect: func() { l.add("connect", nil) },
		OnMessage: func(topic string, _ []byte) { l.add("message:"+topic, nil) },
		OnError:   func(err error) { l.add("error", err) },
		OnClose:   func() { l.add("close", nil) },
	}
}

func (l *eventLog) snapshot() ([]string, []error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...), append([]error(nil), l.errs...)
}

// waitFor blocks until n events have been recorded or the timeout passes.
func (l *eventLog) waitFor(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		l.mu.Lock()
		count := len(l.events)
		l.mu.Unlock()
		if count >= n {
			return true
		}
		select {
		case <-l.notify:
		case <-deadline:
			return false
		}
	}
}
