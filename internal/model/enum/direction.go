package enum

// Direction long, short
type Direction uint8

const (
	_direction_beg Direction = iota
	DirectionLong
	DirectionShort
	_direction_end
)

func (d Direction) IsAvailable() bool {
	return d > _direction_beg && d < _direction_end
}

// Opposite returns the closing side for a position opened in this direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionLong:
		return DirectionShort
	case DirectionShort:
		return DirectionLong
	default:
		return d
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "long"
	case DirectionShort:
		return "short"
	default:
		return "unknown"
	}
}
