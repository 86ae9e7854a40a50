package connectivity

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

var (
	wifiPath    = Path{Satisfied: true, Interfaces: []Type{TypeWiFi}}
	offlinePath = Path{Satisfied: false}
)

func TestMonitorStartsDisconnected(t *testing.T) {
	m := NewMonitor(nil)
	if got := m.Current(); got.Connected || got.Type != TypeNone {
		t.Errorf("initial state = %+v, want disconnected/none", got)
	}
}

func TestMonitorWaitForConnected(t *testing.T) {
	m := NewMonitor(nil)

	released := make(chan error, 1)
	go func() {
		released <- m.WaitForConnected(context.Background())
	}()

	select {
	case <-released:
		t.Fatal("WaitForConnected returned while offline")
	case <-time.After(20 * time.Millisecond):
	}

	m.Update(wifiPath)

	select {
	case err := <-released:
		if err != nil {
			t.Errorf("WaitForConnected() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForConnected did not return after connecting")
	}

	// Already connected: returns immediately
	if err := m.WaitForConnected(context.Background()); err != nil {
		t.Errorf("WaitForConnected() while connected error = %v", err)
	}
}

func TestMonitorWaitForConnectedAfterReconnect(t *testing.T) {
	m := NewMonitor(nil)
	m.Update(wifiPath)
	m.Update(offlinePath)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.WaitForConnected(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForConnected() after disconnect = %v, want deadline exceeded", err)
	}

	m.Update(wifiPath)
	if err := m.WaitForConnected(context.Background()); err != nil {
		t.Errorf("WaitForConnected() after reconnect error = %v", err)
	}
}

func TestMonitorSubscribe(t *testing.T) {
	m := NewMonitor(nil)
	updates, cancel := m.Subscribe()

	m.Update(wifiPath)

	select {
	case s := <-updates:
		if !s.Connected || s.Type != TypeWiFi {
			t.Errorf("received %+v, want connected wifi", s)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	// Identical path produces no notification
	m.Update(wifiPath)
	select {
	case s := <-updates:
		t.Errorf("unexpected notification for unchanged state: %+v", s)
	default:
	}

	cancel()
	if _, ok := <-updates; ok {
		t.Error("channel should be closed after cancel")
	}
	cancel()
}

func TestMonitorSubscribeKeepsLatest(t *testing.T) {
	m := NewMonitor(nil)
	updates, cancel := m.Subscribe()
	defer cancel()

	m.Update(wifiPath)
	m.Update(Path{Satisfied: true, Interfaces: []Type{TypeCellular}})
	m.Update(offlinePath)

	s := <-updates
	if s.Connected {
		t.Errorf("slow subscriber should see the latest state, got %+v", s)
	}
}

type scriptedObserver struct {
	initial Path
	paths   []Path
}

func (o *scriptedObserver) Sample() (Path, error) {
	return o.initial, nil
}

func (o *scriptedObserver) Observe(ctx context.Context, update func(Path)) error {
	for _, p := range o.paths {
		update(p)
	}
	<-ctx.Done()
	return nil
}

func TestMonitorStartSamplesAndObserves(t *testing.T) {
	obs := &scriptedObserver{
		initial: Path{Satisfied: true, Interfaces: []Type{TypeWiredEthernet}},
		paths:   []Path{{Satisfied: true, Interfaces: []Type{TypeCellular}}},
	}
	m := NewMonitor(obs)
	updates, cancel := m.Subscribe()
	defer cancel()

	m.Start(context.Background())

	first := <-updates
	if first.Type != TypeWiredEthernet && first.Type != TypeCellular {
		t.Errorf("unexpected first state %+v", first)
	}

	deadline := time.After(2 * time.Second)
	for m.Current().Type != TypeCellular {
		select {
		case <-deadline:
			t.Fatalf("state never followed observer, current %+v", m.Current())
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Stop()
	if _, ok := <-updates; ok {
		// drain a possibly buffered update, then expect closed
		if _, ok := <-updates; ok {
			t.Error("subscription should be closed after Stop")
		}
	}
}

func TestClassifyInterface(t *testing.T) {
	tests := []struct {
		name  string
		flags net.Flags
		want  Type
	}{
		{"lo", net.FlagUp | net.FlagLoopback, TypeLoopback},
		{"wlan0", net.FlagUp, TypeWiFi},
		{"wlp3s0", net.FlagUp, TypeWiFi},
		{"eth0", net.FlagUp, TypeWiredEthernet},
		{"enp0s31f6", net.FlagUp, TypeWiredEthernet},
		{"wwan0", net.FlagUp, TypeCellular},
		{"rmnet_data0", net.FlagUp, TypeCellular},
		{"docker0", net.FlagUp, TypeOther},
		{"tun0", net.FlagUp, TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyInterface(tt.name, tt.flags); got != tt.want {
				t.Errorf("classifyInterface(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestInterfacePollerSample(t *testing.T) {
	up := net.FlagUp | net.FlagRunning
	p := NewInterfacePoller(0)
	p.interfaces = func() ([]net.Interface, error) {
		return []net.Interface{
			{Name: "lo", Flags: up | net.FlagLoopback},
			{Name: "eth0", Flags: up},
			{Name: "wlan0", Flags: net.FlagUp}, // not running
		}, nil
	}

	path, err := p.Sample()
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	state := StateFromPath(path)
	if !state.Connected || state.Type != TypeWiredEthernet || state.Expensive {
		t.Errorf("state = %+v, want connected inexpensive wiredEthernet", state)
	}
	if p.Interval != DefaultPollInterval {
		t.Errorf("Interval = %v, want default", p.Interval)
	}
}

func TestInterfacePollerLoopbackOnlyIsOffline(t *testing.T) {
	p := NewInterfacePoller(time.Millisecond)
	p.interfaces = func() ([]net.Interface, error) {
		return []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagRunning | net.FlagLoopback}}, nil
	}

	path, err := p.Sample()
	if err != nil {
		t.Fatal(err)
	}
	state := StateFromPath(path)
	if state.Connected || state.Type != TypeLoopback {
		t.Errorf("state = %+v, want disconnected loopback", state)
	}
}

func TestInterfacePollerObserveStopsOnCancel(t *testing.T) {
	p := NewInterfacePoller(time.Millisecond)
	p.interfaces = func() ([]net.Interface, error) {
		return []net.Interface{{Name: "eth0", Flags: net.FlagUp | net.FlagRunning}}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	seen := make(chan Path, 16)
	done := make(chan error, 1)
	go func() {
		done <- p.Observe(ctx, func(path Path) {
			select {
			case seen <- path:
			default:
			}
		})
	}()

	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reported a path")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Observe() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Observe did not return after cancel")
	}
}
