package resolver

import (
	"strings"

	"github.com/tripbrain-dev/tripbrain/internal/state"
)

// State is the outcome of resolving location context for one turn.
type State int

const (
	// NoLocation means the turn carries no location and the session has
	// none either; the turn must fail with a location-required outcome
	// rather than guess.
	NoLocation State = iota
	// NewLocation means the extraction service produced a location name
	// for this turn.
	NewLocation
	// Continuation means the turn carries no location and the session's
	// stored location is used unchanged, rotation state untouched.
	Continuation
)

func (s State) String() string {
	switch s {
	case NewLocation:
		return "new_location"
	case Continuation:
		return "continuation"
	default:
		return "no_location"
	}
}

// Resolution carries the resolved location context for a turn.
type Resolution struct {
	State    State
	Location string
	Lat      float64
	Lon      float64
	// HasCoords is false for a NewLocation (geocoding still pending) and
	// for the rare stored location without coordinates.
	HasCoords bool
	// FollowUp marks continuation phrasing ("more", "else", ...). It only
	// affects response wording, never the dedup algorithm, and is
	// independent of the location state machine.
	FollowUp bool
	// SameAsStored is true when a NewLocation names the session's current
	// location again; stored coordinates are trusted and rotation state is
	// kept.
	SameAsStored bool
}

// Resolve decides, per incoming turn, whether to use the freshly extracted
// location or fall back to session state. extracted is the output of the
// external extraction service ("" for none).
func Resolve(extracted string, sess *state.SessionState, message string) Resolution {
	res := Resolution{FollowUp: IsFollowUp(message)}

	if extracted != "" {
		res.State = NewLocation
		res.Location = extracted
		if sess.HasLocation() && state.SameLocation(sess.CurrentLocation, extracted) {
			res.SameAsStored = true
			if sess.HasCoordinates() {
				res.Lat = *sess.CurrentLat
				res.Lon = *sess.CurrentLon
				res.HasCoords = true
			}
		}
		return res
	}

	if sess.HasLocation() {
		res.State = Continuation
		res.Location = sess.CurrentLocation
		if sess.HasCoordinates() {
			res.Lat = *sess.CurrentLat
			res.Lon = *sess.CurrentLon
			res.HasCoords = true
		}
		return res
	}

	res.State = NoLocation
	return res
}

// followUpCues is the fixed continuation vocabulary.
var followUpCues = map[string]struct{}{
	"more":       {},
	"else":       {},
	"other":      {},
	"others":     {},
	"another":    {},
	"additional": {},
}

// IsFollowUp reports whether the message contains a continuation cue.
func IsFollowUp(message string) bool {
	for _, word := range strings.Fields(strings.ToLower(message)) {
		word = strings.Trim(word, ".,!?;:'\"")
		if _, ok := followUpCues[word]; ok {
			return true
		}
	}
	return false
}
