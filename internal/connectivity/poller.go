package connectivity

import (
	"context"
	"net"
	"strings"
	"time"
)

// DefaultPollInterval is how often InterfacePoller inspects the interfaces.
const DefaultPollInterval = 5 * time.Second

// InterfacePoller observes the network path by polling the host's network
// interfaces. Interface kinds are inferred from their names.
type InterfacePoller struct {
	Interval time.Duration

	// interfaces is replaced in tests.
	interfaces func() ([]net.Interface, error)
}

// NewInterfacePoller returns a poller using interval, or DefaultPollInterval if zero.
func NewInterfacePoller(interval time.Duration) *InterfacePoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &InterfacePoller{Interval: interval, interfaces: net.Interfaces}
}

// Sample reads the current path.
func (p *InterfacePoller) Sample() (Path, error) {
	ifaces, err := p.interfaces()
	if err != nil {
		return Path{}, err
	}
	return pathFromInterfaces(ifaces), nil
}

// Observe polls until ctx is cancelled. Sample errors are skipped; the next
// tick tries again.
func (p *InterfacePoller) Observe(ctx context.Context, update func(Path)) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if path, err := p.Sample(); err == nil {
				update(path)
			}
		}
	}
}

func pathFromInterfaces(ifaces []net.Interface) Path {
	var path Path
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagRunning == 0 {
			continue
		}
		t := classifyInterface(iface.Name, iface.Flags)
		path.Interfaces = append(path.Interfaces, t)
		if t != TypeLoopback {
			path.Satisfied = true
		}
	}
	return path
}

var interfacePrefixes = []struct {
	prefixes []string
	kind     Type
}{
	{[]string{"wlan", "wlp", "wl", "wifi", "ath", "ra"}, TypeWiFi},
	{[]string{"wwan", "rmnet", "ccmni", "pdp_ip", "ppp"}, TypeCellular},
	{[]string{"eth", "enp", "ens", "eno", "enx", "en", "em"}, TypeWiredEthernet},
	{[]string{"lo"}, TypeLoopback},
}

func classifyInterface(name string, flags net.Flags) Type {
	if flags&net.FlagLoopback != 0 {
		return TypeLoopback
	}
	lower := strings.ToLower(name)
	for _, group := range interfacePrefixes {
		for _, prefix := range group.prefixes {
			if strings.HasPrefix(lower, prefix) {
				return group.kind
			}
		}
	}
	return TypeOther
}
