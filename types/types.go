package types

// NoFloor is returned when no request is available.
const NoFloor = -1

type Direction int

const (
	DirDown Direction = -1
	DirNone Direction = 0
	DirUp   Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "none"
	}
}

// DirectionTo returns the direction of travel from floor `from` to floor `to`.
func DirectionTo(from, to int) Direction {
	if to > from {
		return DirUp
	} else if to < from {
		return DirDown
	}
	return DirNone
}

// Car is the target of dispatch commands.
type Car interface {
	ID() int
	GoToFloor(floor int)
}

// FloorCall is a hall button press. Up and down calls are both pickups.
type FloorCall struct {
	Floor     int
	Direction Direction
}

// CarCall is a destination button press inside a car.
type CarCall struct {
	Car   int
	Floor int
}

type CarStopped struct {
	Car   int
	Floor int
}

type CarIdle struct {
	Car int
}

// EventBatch holds the events produced during one simulation tick, in the
// order they must be handled.
type EventBatch struct {
	FloorCalls []FloorCall
	CarCalls   []CarCall
	Stops      []CarStopped
	Idles      []CarIdle
}

func (b EventBatch) Empty() bool {
	return len(b.FloorCalls) == 0 && len(b.CarCalls) == 0 && len(b.Stops) == 0 && len(b.Idles) == 0
}
