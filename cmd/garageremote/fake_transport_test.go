package main

import (
	"sync"

	"github.com/nerrad567/garage-remote/internal/garage"
)

// fakeTransport completes every session asynchronously, like a broker would.
type fakeTransport struct {
	connectErr error // delivered through OnError then OnClose
	publishErr error
	silent     bool // never call back

	mu        sync.Mutex
	opened    int
	lastURL   string
	lastOpts  garage.SessionOptions
	published []string
}

func (f *fakeTransport) Open(brokerURL string, opts garage.SessionOptions, listener garage.Listener) (garage.Session, error) {
	f.mu.Lock()
	f.opened++
	f.lastURL = brokerURL
	f.lastOpts = opts
	f.mu.Unlock()

	s := &fakeSession{transport: f, listener: listener}
	if f.silent {
		return s, nil
	}
	go func() {
		if f.connectErr != nil {
			s.emit(func(l garage.Listener) {
				if l.OnError != nil {
					l.OnError(f.connectErr)
				}
				if l.OnClose != nil {
					l.OnClose()
				}
			})
			return
		}
		s.emit(func(l garage.Listener) {
			if l.OnConnect != nil {
				l.OnConnect()
			}
		})
	}()
	return s, nil
}

func (f *fakeTransport) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

func (f *fakeTransport) publishedTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

type fakeSession struct {
	transport *fakeTransport

	mu       sync.Mutex
	listener garage.Listener
	detached bool
}

func (s *fakeSession) emit(fn func(garage.Listener)) {
	s.mu.Lock()
	l, detached := s.listener, s.detached
	s.mu.Unlock()
	if !detached {
		fn(l)
	}
}

func (s *fakeSession) Subscribe(_ string, _ byte, done func(error)) {
	go done(nil)
}

func (s *fakeSession) Publish(topic string, _ []byte, _ byte, done func(error)) {
	s.transport.mu.Lock()
	s.transport.published = append(s.transport.published, topic)
	err := s.transport.publishErr
	s.transport.mu.Unlock()
	go done(err)
}

func (s *fakeSession) RemoveAllListeners() {
	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()
}

func (s *fakeSession) End(bool) {}
