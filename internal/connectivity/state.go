package connectivity

// Type is the kind of interface the current network path goes through.
type Type int

const (
	TypeNone Type = iota
	TypeWiFi
	TypeCellular
	TypeWiredEthernet
	TypeLoopback
	TypeOther
)

func (t Type) String() string {
	switch t {
	case TypeWiFi:
		return "wifi"
	case TypeCellular:
		return "cellular"
	case TypeWiredEthernet:
		return "wiredEthernet"
	case TypeLoopback:
		return "loopback"
	case TypeOther:
		return "other"
	default:
		return "none"
	}
}

// MarshalText encodes the type by name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *Type) UnmarshalText(b []byte) error {
	*t = ParseType(string(b))
	return nil
}

// ParseType is the inverse of Type.String. Unknown names map to TypeNone.
func ParseType(s string) Type {
	for _, t := range allTypes {
		if t.String() == s {
			return t
		}
	}
	return TypeNone
}

var allTypes = []Type{TypeWiFi, TypeCellular, TypeWiredEthernet, TypeLoopback, TypeOther, TypeNone}

// precedence is the order in which available interfaces decide the Type.
var precedence = []Type{TypeWiFi, TypeCellular, TypeWiredEthernet, TypeLoopback, TypeOther}

// State is a snapshot of network connectivity.
type State struct {
	Connected bool `json:"connected"`
	Type      Type `json:"type"`
	Expensive bool `json:"expensive"`
}

// Path is the OS view of the network path: whether it can carry traffic and
// which interface kinds it may use.
type Path struct {
	Satisfied  bool
	Interfaces []Type
}

func (p Path) uses(t Type) bool {
	for _, i := range p.Interfaces {
		if i == t {
			return true
		}
	}
	return false
}

// StateFromPath derives the connectivity state for a path. The type is the
// first available interface in the order wifi, cellular, wired ethernet,
// loopback, other. Wifi and wired are never expensive, cellular always is,
// and other is expensive while connected.
func StateFromPath(p Path) State {
	s := State{Connected: p.Satisfied, Type: TypeNone}
	for _, t := range precedence {
		if p.uses(t) {
			s.Type = t
			break
		}
	}

	switch s.Type {
	case TypeCellular:
		s.Expensive = true
	case TypeOther:
		s.Expensive = s.Connected
	}
	return s
}
