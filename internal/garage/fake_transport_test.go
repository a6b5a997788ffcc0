package garage

import (
	"sync"
)

// fakeTransport records sessions opened by a Manager.
type fakeTransport struct {
	mu       sync.Mutex
	sessions []*fakeSession
	openErr  error
}

type publishCall struct {
	topic   string
	payload []byte
	qos     byte
	done    func(error)
}

type subscribeCall struct {
	topic string
	qos   byte
	done  func(error)
}

// fakeSession lets tests fire transport events by hand.
// Events are delivered through the listener captured at Open, even after
// RemoveAllListeners, when fired via the raw* helpers.
type fakeSession struct {
	mu         sync.Mutex
	url        string
	opts       SessionOptions
	listener   Listener
	raw        Listener
	detached   bool
	ended      bool
	forced     bool
	subscribes []subscribeCall
	publishes  []publishCall
}

func (t *fakeTransport) Open(brokerURL string, opts SessionOptions, listener Listener) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		return nil, t.openErr
	}
	s := &fakeSession{url: brokerURL, opts: opts, listener: listener, raw: listener}
	t.sessions = append(t.sessions, s)
	return s, nil
}

func (t *fakeTransport) session(i int) *fakeSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[i]
}

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (s *fakeSession) Subscribe(topic string, qos byte, done func(error)) {
	s.mu.Lock()
	s.subscribes = append(s.subscribes, subscribeCall{topic: topic, qos: qos, done: done})
	s.mu.Unlock()
}

func (s *fakeSession) Publish(topic string, payload []byte, qos byte, done func(error)) {
	s.mu.Lock()
	s.publishes = append(s.publishes, publishCall{topic: topic, payload: payload, qos: qos, done: done})
	s.mu.Unlock()
}

func (s *fakeSession) RemoveAllListeners() {
	s.mu.Lock()
	s.listener = Listener{}
	s.detached = true
	s.mu.Unlock()
}

func (s *fakeSession) End(force bool) {
	s.mu.Lock()
	s.ended = true
	s.forced = force
	s.mu.Unlock()
}

func (s *fakeSession) current() Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// fireConnect delivers a connect event through the attached listener.
func (s *fakeSession) fireConnect() {
	if l := s.current(); l.OnConnect != nil {
		l.OnConnect()
	}
}

func (s *fakeSession) fireMessage(topic string, payload []byte) {
	if l := s.current(); l.OnMessage != nil {
		l.OnMessage(topic, payload)
	}
}

func (s *fakeSession) fireError(err error) {
	if l := s.current(); l.OnError != nil {
		l.OnError(err)
	}
}

func (s *fakeSession) fireClose() {
	if l := s.current(); l.OnClose != nil {
		l.OnClose()
	}
}

// rawMessage bypasses listener removal to simulate a late callback.
func (s *fakeSession) rawMessage(topic string, payload []byte) {
	s.raw.OnMessage(topic, payload)
}

func (s *fakeSession) rawClose() {
	s.raw.OnClose()
}

func (s *fakeSession) lastSubscribe() subscribeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes[len(s.subscribes)-1]
}

func (s *fakeSession) subscribeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribes)
}

func (s *fakeSession) publishCalls() []publishCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]publishCall(nil), s.publishes...)
}

// recordingObserver captures every snapshot delivered by a Store.
type recordingObserver struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recordingObserver) observe(s Snapshot) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, s)
	r.mu.Unlock()
}

func (r *recordingObserver) statuses() []ConnectionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ConnectionStatus, len(r.snapshots))
	for i, s := range r.snapshots {
		out[i] = s.Status
	}
	return out
}

// captureLogger records warn-level messages.
type captureLogger struct {
	nopLogger
	mu    sync.Mutex
	warns []string
}

func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *captureLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}
