package poll

import "strconv"

// Direction selects the watch set(s) an operation applies to.
// The values match the guest-visible poll mode constants.
type Direction uint8

const (
	Nothing Direction = iota
	In
	Out
	InOut
)

func (d Direction) String() string {
	switch d {
	case Nothing:
		return "nothing"
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	default:
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
}

// Valid reports whether d is one of the four defined directions.
func (d Direction) Valid() bool {
	return d <= InOut
}

func (d Direction) hasIn() bool  { return d&In != 0 }
func (d Direction) hasOut() bool { return d&Out != 0 }

func directionOf(in, out bool) Direction {
	var d Direction
	if in {
		d |= In
	}
	if out {
		d |= Out
	}
	return d
}

// mode is the engine's iterator state. Watching modes iterate
// registrations, findings modes iterate descriptors found ready by the last
// poll.
type mode uint8

const (
	modeEmpty mode = iota
	modeWatchingIn
	modeWatchingOut
	modeWatchingInOut
	modeFindingsIn
	modeFindingsOut
	modeFindingsInOut
)

func watchingMode(d Direction) mode {
	if d == Nothing {
		return modeEmpty
	}
	return modeWatchingIn + mode(d-In)
}

func findingsMode(d Direction) mode {
	if d == Nothing {
		return modeEmpty
	}
	return modeFindingsIn + mode(d-In)
}

func (m mode) findings() bool {
	return m >= modeFindingsIn
}

func (m mode) direction() Direction {
	switch {
	case m == modeEmpty:
		return Nothing
	case m.findings():
		return In + Direction(m-modeFindingsIn)
	default:
		return In + Direction(m-modeWatchingIn)
	}
}

func (m mode) String() string {
	switch {
	case m == modeEmpty:
		return "empty"
	case m.findings():
		return "findings-" + m.direction().String()
	default:
		return "watching-" + m.direction().String()
	}
}
