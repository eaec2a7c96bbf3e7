package flow

// State identifies a step of a multi-step conversation.
type State string

const (
	// StateIdle indicates there is no active workflow with the user.
	StateIdle State = "idle"
	// StateAwaitName waits for the restaurant name during add.
	StateAwaitName State = "await_name"
	// StateAwaitLocation waits for the restaurant location during add.
	StateAwaitLocation State = "await_location"
	// StateAwaitLandmark waits for an optional nearby landmark during add.
	StateAwaitLandmark State = "await_landmark"
	// StateAwaitNotes waits for optional free-form notes during add.
	StateAwaitNotes State = "await_notes"
	// StateAwaitRating waits for a 1..5 star selection.
	StateAwaitRating State = "await_rating"
	// StateAwaitDeleteConfirm waits for a delete candidate pick and its confirmation.
	StateAwaitDeleteConfirm State = "await_delete_confirm"
)

// Scratchpad keys for values collected across workflow steps.
const (
	ScratchName     = "name"
	ScratchLocation = "location"
	ScratchLandmark = "landmark"
	ScratchNotes    = "notes"
	ScratchRateID   = "rate_id"
	ScratchDeleteID = "delete_id"
)

// Session stores conversation state and the scratchpad for one user.
// Sessions live only for the process lifetime.
type Session struct {
	State   State
	Scratch map[string]string
}

// NewSession returns a fresh idle session.
func NewSession() Session {
	return Session{State: StateIdle, Scratch: map[string]string{}}
}

// withState copies the session into the given state, keeping the scratchpad.
func (s Session) withState(st State) Session {
	next := Session{State: st, Scratch: make(map[string]string, len(s.Scratch))}
	for k, v := range s.Scratch {
		next.Scratch[k] = v
	}
	return next
}

// withValue copies the session, stores key=value, and moves to st.
func (s Session) withValue(st State, key, value string) Session {
	next := s.withState(st)
	next.Scratch[key] = value
	return next
}

func (s Session) scratch(key string) string {
	if s.Scratch == nil {
		return ""
	}
	return s.Scratch[key]
}

func knownState(st State) bool {
	switch st {
	case StateIdle, StateAwaitName, StateAwaitLocation, StateAwaitLandmark,
		StateAwaitNotes, StateAwaitRating, StateAwaitDeleteConfirm:
		return true
	}
	return false
}
