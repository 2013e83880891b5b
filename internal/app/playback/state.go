// Package playback provides the button-driven playback state machine and
// its persisted state.
package playback

// State represents the persisted playback state token. Absence of a token
// means "never played since boot".
type State string

const (
	StatePlaying State = "PLAYING"
	StatePaused  State = "PAUSED"
	StateStopped State = "STOPPED"
)

// String returns the persisted token form of the state.
func (s State) String() string {
	return string(s)
}
