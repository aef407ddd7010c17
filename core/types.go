package core

// Direction selects which pad buffers are enabled
type Direction uint8

const (
	DirDisable     Direction = iota // input and output off
	DirInput                        // input only
	DirOutput                       // output only
	DirInputOutput                  // both
)

func (d Direction) String() string {
	switch d {
	case DirDisable:
		return "disable"
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirInputOutput:
		return "input_output"
	default:
		return "unknown"
	}
}

// PullMode selects the internal pull resistors
type PullMode uint8

const (
	PullFloating PullMode = iota
	PullUp
	PullDown
	PullUpDown
)

func (p PullMode) String() string {
	switch p {
	case PullFloating:
		return "floating"
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	case PullUpDown:
		return "up_down"
	default:
		return "unknown"
	}
}

// IntrType is the interrupt trigger, encoded as the hardware INT_TYPE field
type IntrType uint8

const (
	IntrDisable   IntrType = iota // no interrupt
	IntrPosEdge                   // rising edge
	IntrNegEdge                   // falling edge
	IntrAnyEdge                   // both edges
	IntrLowLevel                  // input low
	IntrHighLevel                 // input high
	IntrMax
)

// IsLevel reports whether the trigger observes a held level
func (t IntrType) IsLevel() bool {
	return t == IntrLowLevel || t == IntrHighLevel
}

func (t IntrType) String() string {
	switch t {
	case IntrDisable:
		return "disable"
	case IntrPosEdge:
		return "posedge"
	case IntrNegEdge:
		return "negedge"
	case IntrAnyEdge:
		return "anyedge"
	case IntrLowLevel:
		return "low_level"
	case IntrHighLevel:
		return "high_level"
	default:
		return "unknown"
	}
}

// ModeFlag is the mode bit set accepted by Configure
type ModeFlag uint8

const (
	ModeInput     ModeFlag = 1 << 0
	ModeOutput    ModeFlag = 1 << 1
	ModeOpenDrain ModeFlag = 1 << 2
)

// ParseDirection maps a Direction name back onto its value
func ParseDirection(s string) (Direction, bool) {
	for d := DirDisable; d <= DirInputOutput; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

// ParsePullMode maps a PullMode name back onto its value
func ParsePullMode(s string) (PullMode, bool) {
	for p := PullFloating; p <= PullUpDown; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// ParseIntrType maps an IntrType name back onto its value
func ParseIntrType(s string) (IntrType, bool) {
	for t := IntrDisable; t < IntrMax; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}
