package garage

import (
	"sync"
	"testing"
)

func TestStore_SubscribeReceivesCurrent(t *testing.T) {
	s := NewStore(InitialSnapshot())
	rec := &recordingObserver{}

	unsubscribe := s.Subscribe(rec.observe)
	defer unsubscribe()

	got := rec.statuses()
	if len(got) != 1 || got[0] != StatusDisconnected {
		t.Errorf("initial notifications = %v, want [disconnected]", got)
	}
}

func TestStore_OrderedDelivery(t *testing.T) {
	s := NewStore(InitialSnapshot())
	first := &recordingObserver{}
	second := &recordingObserver{}
	defer s.Subscribe(first.observe)()
	defer s.Subscribe(second.observe)()

	s.Set(Snapshot{Status: StatusConnecting, GarageState: StateUnknown})
	s.Update(func(sn Snapshot) Snapshot {
		sn.Status = StatusConnected
		return sn
	})
	s.Update(func(sn Snapshot) Snapshot {
		sn.Status = StatusError
		sn.Error = "boom"
		return sn
	})

	want := []ConnectionStatus{StatusDisconnected, StatusConnecting, StatusConnected, StatusError}
	for name, rec := range map[string]*recordingObserver{"first": first, "second": second} {
		got := rec.statuses()
		if len(got) != len(want) {
			t.Fatalf("%s observer got %v, want %v", name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s observer [%d] = %q, want %q", name, i, got[i], want[i])
			}
		}
	}

	if s.Get().Error != "boom" {
		t.Errorf("Get().Error = %q, want %q", s.Get().Error, "boom")
	}
}

func TestStore_NoCoalescingUnderConcurrency(t *testing.T) {
	s := NewStore(Snapshot{})
	var (
		mu    sync.Mutex
		count int
	)
	defer s.Subscribe(func(Snapshot) {
		mu.Lock()
		count++
		mu.Unlock()
	})()

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				s.Update(func(sn Snapshot) Snapshot { return sn })
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if want := writers*perWriter + 1; count != want {
		t.Errorf("notifications = %d, want %d", count, want)
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := NewStore(InitialSnapshot())
	rec := &recordingObserver{}

	unsubscribe := s.Subscribe(rec.observe)
	unsubscribe()
	unsubscribe()

	s.Set(Snapshot{Status: StatusConnecting})

	if got := len(rec.statuses()); got != 1 {
		t.Errorf("notifications after unsubscribe = %d, want 1", got)
	}
	if s.observerCount() != 0 {
		t.Errorf("observerCount() = %d, want 0", s.observerCount())
	}
}

func TestStore_ObserverMayRead(t *testing.T) {
	s := NewStore(InitialSnapshot())
	var seen ConnectionStatus
	defer s.Subscribe(func(Snapshot) {
		seen = s.Get().Status
	})()

	s.Set(Snapshot{Status: StatusConnected})

	if seen != StatusConnected {
		t.Errorf("Get() inside observer = %q, want %q", seen, StatusConnected)
	}
}
