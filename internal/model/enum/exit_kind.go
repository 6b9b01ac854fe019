package enum

// ExitKind stop, profit, time, flatten
type ExitKind uint8

const (
	_exit_kind_beg ExitKind = iota
	ExitKindStop
	ExitKindProfit
	ExitKindTime
	ExitKindFlatten
	_exit_kind_end
)

func (k ExitKind) IsAvailable() bool {
	return k > _exit_kind_beg && k < _exit_kind_end
}

// Letter is the single-character code embedded in order tags.
func (k ExitKind) Letter() string {
	switch k {
	case ExitKindStop:
		return "s"
	case ExitKindProfit:
		return "p"
	case ExitKindTime:
		return "t"
	case ExitKindFlatten:
		return "m"
	default:
		return ""
	}
}

// ExitKindFromLetter parses a tag code back into an ExitKind.
func ExitKindFromLetter(letter string) (ExitKind, bool) {
	switch letter {
	case "s":
		return ExitKindStop, true
	case "p":
		return ExitKindProfit, true
	case "t":
		return ExitKindTime, true
	case "m":
		return ExitKindFlatten, true
	default:
		return _exit_kind_beg, false
	}
}

func (k ExitKind) String() string {
	switch k {
	case ExitKindStop:
		return "stop"
	case ExitKindProfit:
		return "profit"
	case ExitKindTime:
		return "time"
	case ExitKindFlatten:
		return "flatten"
	default:
		return "unknown"
	}
}
