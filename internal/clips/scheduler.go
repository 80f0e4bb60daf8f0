package clips

// Phase is the scheduler's position relative to the active interval
type Phase int

const (
	// Idle means no interval is active; the next frame activates one
	Idle Phase = iota
	// Waiting means an interval is active but its first frame has not been seen
	Waiting
	// Writing means frames are being kept
	Writing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Writing:
		return "writing"
	default:
		return "unknown"
	}
}

// Decision is what to do with one frame
type Decision int

const (
	Discard Decision = iota
	Keep
	// Stop means every interval has been consumed and the stream can be abandoned
	Stop
)

func (d Decision) String() string {
	switch d {
	case Discard:
		return "discard"
	case Keep:
		return "keep"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// State is the scheduler cursor. The zero value is the initial state.
type State struct {
	Phase  Phase
	Next   int        // index of the next interval to activate
	Active FrameRange // meaningful unless Phase is Idle
}

// Transition decides the fate of frame n and returns the following state.
// Intervals are consumed strictly in order and never revisited.
func Transition(ranges []FrameRange, st State, n int) (Decision, State) {
	if st.Phase == Idle {
		if st.Next >= len(ranges) {
			return Stop, st
		}
		st.Active = ranges[st.Next]
		st.Next++
		st.Phase = Waiting
	}

	if n == st.Active.First {
		st.Phase = Writing
	} else if n > st.Active.Last {
		// the next interval is only activated on the following frame
		st.Phase = Idle
		st.Active = FrameRange{}
	}

	if st.Phase == Writing {
		return Keep, st
	}
	return Discard, st
}

// Scheduler applies Transition to a sequentially indexed frame stream
type Scheduler struct {
	ranges []FrameRange
	state  State
}

// NewScheduler creates a scheduler over the ranges in the given order
func NewScheduler(ranges []FrameRange) *Scheduler {
	return &Scheduler{ranges: ranges}
}

// Decide consumes frame n
func (s *Scheduler) Decide(n int) Decision {
	d, next := Transition(s.ranges, s.state, n)
	s.state = next
	return d
}

// State returns the current cursor
func (s *Scheduler) State() State {
	return s.state
}
