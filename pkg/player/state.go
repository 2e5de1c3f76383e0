package player

import "github.com/zurustar/pianoroll/pkg/loop"

// State is the player's presentation state.
type State int

const (
	Idle State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "idle"
}

// View is everything the front end draws for one frame.
type View struct {
	State         State
	ShowPlay      bool
	ShowPause     bool
	LoopActive    bool
	RegionVisible bool
	Region        loop.Region
	Tempo         int
	Scroll        float64
	Playhead      float64 // roll x of the play position
	Active        []int
	Selected      []int
}
