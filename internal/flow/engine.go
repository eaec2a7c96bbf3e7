package flow

import (
	"strconv"
	"strings"

	"github.com/m3rciful/restobot/internal/auth"
)

// Prompt texts shared between first renders and re-prompts.
const (
	textWelcome       = "Welcome to the restaurant registry. Pick an action below."
	textAdminPanel    = "Admin panel. Add and delete are enabled for you."
	textNotAdmin      = "This action is available to administrators only."
	textCancelled     = "Cancelled."
	textAskName       = "Send the restaurant name."
	textAskLocation   = "Send the restaurant location."
	textAskLandmark   = "Send a nearby landmark, or skip."
	textAskNotes      = "Send additional notes, or skip."
	textAskRating     = "Pick a rating."
	textAskDeletePick = "Pick a restaurant to delete."
	textNameEmpty     = "The name cannot be empty. Send the restaurant name."
	textLocationEmpty = "The location cannot be empty. Send the restaurant location."
)

// Decision is the full outcome of one transition: the session to persist,
// an optional registry command for the dispatcher, an optional static
// render, and whether to append the main menu afterwards.
type Decision struct {
	Next    Session
	Command *Command
	Render  Render
	Menu    bool
}

// Engine decides transitions. It holds no per-user data; all conversation
// state arrives in the session argument.
type Engine struct {
	gate *auth.Gate
}

// NewEngine returns an engine bound to the given authorization gate.
func NewEngine(gate *auth.Gate) *Engine {
	return &Engine{gate: gate}
}

// MainMenu renders the top-level menu for userID. Mutating actions appear
// only for administrators; showing them to everyone would just funnel users
// into authorization denials.
func (e *Engine) MainMenu(userID int64) Render {
	rows := [][]Button{
		{
			{Label: "📋 Restaurants", Action: ActionMenuView},
			{Label: "👍 Recommend", Action: ActionMenuRecommend},
		},
	}
	if e.gate.IsAdmin(userID) {
		rows = append(rows, []Button{
			{Label: "➕ Add", Action: ActionMenuAdd},
			{Label: "🗑 Delete", Action: ActionMenuDelete},
		})
	}
	return Render{Buttons: rows}
}

// Decide maps (session, event) to a Decision. It is a pure function: the
// input session is never mutated, and the authorization gate is re-consulted
// at every privileged step so a mid-flow admin revocation cannot complete a
// mutation.
func (e *Engine) Decide(s Session, ev Event) Decision {
	if !knownState(s.State) || s.Scratch == nil {
		s = NewSession()
	}

	// Global events reset whatever workflow is active.
	switch {
	case ev.Kind == KindCommand && ev.Command == CommandStart:
		return Decision{Next: NewSession(), Render: Render{Text: textWelcome}, Menu: true}
	case ev.Kind == KindCommand && ev.Command == CommandAdmin:
		if !e.gate.IsAdmin(ev.UserID) {
			return Decision{Next: NewSession(), Render: Render{Text: textNotAdmin}, Menu: true}
		}
		return Decision{Next: NewSession(), Render: Render{Text: textAdminPanel}, Menu: true}
	case ev.Kind == KindButton && ev.Action == ActionCancel:
		return Decision{Next: NewSession(), Render: Render{Text: textCancelled}, Menu: true}
	}

	switch s.State {
	case StateIdle:
		return e.decideIdle(s, ev)
	case StateAwaitName:
		return e.decideName(s, ev)
	case StateAwaitLocation:
		return e.decideLocation(s, ev)
	case StateAwaitLandmark:
		return e.decideOptional(s, ev, ScratchLandmark, StateAwaitNotes)
	case StateAwaitNotes:
		return e.decideOptional(s, ev, ScratchNotes, StateIdle)
	case StateAwaitRating:
		return e.decideRating(s, ev)
	case StateAwaitDeleteConfirm:
		return e.decideDelete(s, ev)
	}
	return Decision{Next: NewSession(), Menu: true}
}

func (e *Engine) decideIdle(s Session, ev Event) Decision {
	if ev.Kind != KindButton {
		return e.reprompt(s, ev.UserID)
	}
	switch ev.Action {
	case ActionMenuView:
		return Decision{Next: s, Command: &Command{Op: OpList}, Menu: true}
	case ActionMenuRecommend:
		return Decision{Next: s, Command: &Command{Op: OpRecommend}, Menu: true}
	case ActionMenuAdd:
		if d, ok := e.requireAdmin(ev.UserID); !ok {
			return d
		}
		return Decision{
			Next:   s.withState(StateAwaitName),
			Render: Render{Text: textAskName, Buttons: [][]Button{cancelRow()}},
		}
	case ActionMenuDelete:
		if d, ok := e.requireAdmin(ev.UserID); !ok {
			return d
		}
		return Decision{
			Next:    s.withState(StateAwaitDeleteConfirm),
			Command: &Command{Op: OpListDelete},
		}
	case ActionRate:
		if _, ok := parseID(ev.Payload); !ok {
			return e.reprompt(s, ev.UserID)
		}
		return Decision{
			Next:   s.withValue(StateAwaitRating, ScratchRateID, ev.Payload),
			Render: Render{Text: textAskRating, Buttons: starRows()},
		}
	case ActionDeletePick:
		// Direct delete from the view list skips the pick step.
		if d, ok := e.requireAdmin(ev.UserID); !ok {
			return d
		}
		return e.confirmDelete(s, ev)
	}
	return e.reprompt(s, ev.UserID)
}

func (e *Engine) decideName(s Session, ev Event) Decision {
	if d, ok := e.requireAdmin(ev.UserID); !ok {
		return d
	}
	if ev.Kind != KindText {
		return e.reprompt(s, ev.UserID)
	}
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return Decision{
			Next:   s,
			Render: Render{Text: textNameEmpty, Buttons: [][]Button{cancelRow()}},
		}
	}
	return Decision{
		Next:   s.withValue(StateAwaitLocation, ScratchName, name),
		Render: Render{Text: textAskLocation, Buttons: [][]Button{cancelRow()}},
	}
}

func (e *Engine) decideLocation(s Session, ev Event) Decision {
	if d, ok := e.requireAdmin(ev.UserID); !ok {
		return d
	}
	if ev.Kind != KindText {
		return e.reprompt(s, ev.UserID)
	}
	loc := strings.TrimSpace(ev.Text)
	if loc == "" {
		return Decision{
			Next:   s,
			Render: Render{Text: textLocationEmpty, Buttons: [][]Button{cancelRow()}},
		}
	}
	return Decision{
		Next:   s.withValue(StateAwaitLandmark, ScratchLocation, loc),
		Render: Render{Text: textAskLandmark, Buttons: [][]Button{skipCancelRow()}},
	}
}

// decideOptional handles the two optional add steps. A skip leaves the
// scratch key unset; reaching StateIdle from notes finalizes the create.
func (e *Engine) decideOptional(s Session, ev Event, key string, next State) Decision {
	if d, ok := e.requireAdmin(ev.UserID); !ok {
		return d
	}
	skipped := ev.Kind == KindButton && ev.Action == ActionSkip
	if !skipped && ev.Kind != KindText {
		return e.reprompt(s, ev.UserID)
	}
	ns := s.withState(next)
	if !skipped {
		if v := strings.TrimSpace(ev.Text); v != "" {
			ns.Scratch[key] = v
		}
	}
	if next != StateIdle {
		return Decision{Next: ns, Render: Render{Text: textAskNotes, Buttons: [][]Button{skipCancelRow()}}}
	}
	cmd := &Command{
		Op:       OpCreate,
		Name:     ns.scratch(ScratchName),
		Location: ns.scratch(ScratchLocation),
		Landmark: optional(ns.scratch(ScratchLandmark)),
		Notes:    optional(ns.scratch(ScratchNotes)),
	}
	return Decision{Next: NewSession(), Command: cmd, Menu: true}
}

func (e *Engine) decideRating(s Session, ev Event) Decision {
	if ev.Kind != KindButton || ev.Action != ActionRateScore {
		return e.reprompt(s, ev.UserID)
	}
	score, err := strconv.Atoi(ev.Payload)
	if err != nil || score < 1 || score > 5 {
		return e.reprompt(s, ev.UserID)
	}
	id, ok := parseID(s.scratch(ScratchRateID))
	if !ok {
		return Decision{Next: NewSession(), Menu: true}
	}
	return Decision{
		Next:    NewSession(),
		Command: &Command{Op: OpRate, ID: id, Rating: score},
		Menu:    true,
	}
}

func (e *Engine) decideDelete(s Session, ev Event) Decision {
	if d, ok := e.requireAdmin(ev.UserID); !ok {
		return d
	}
	if ev.Kind != KindButton {
		return e.reprompt(s, ev.UserID)
	}
	switch ev.Action {
	case ActionDeletePick:
		return e.confirmDelete(s, ev)
	case ActionDeleteConfirm:
		id, ok := parseID(ev.Payload)
		if !ok {
			id, ok = parseID(s.scratch(ScratchDeleteID))
		}
		if !ok {
			return e.reprompt(s, ev.UserID)
		}
		return Decision{
			Next:    NewSession(),
			Command: &Command{Op: OpDelete, ID: id},
			Menu:    true,
		}
	}
	return e.reprompt(s, ev.UserID)
}

// confirmDelete remembers the picked id and asks for explicit confirmation.
func (e *Engine) confirmDelete(s Session, ev Event) Decision {
	id, ok := parseID(ev.Payload)
	if !ok {
		return e.reprompt(s, ev.UserID)
	}
	return Decision{
		Next: s.withValue(StateAwaitDeleteConfirm, ScratchDeleteID, ev.Payload),
		Render: Render{
			Text: "Delete restaurant #" + strconv.FormatInt(id, 10) + "?",
			Buttons: [][]Button{{
				{Label: "Yes, delete", Action: ActionDeleteConfirm, Payload: ev.Payload},
				{Label: "✖ Cancel", Action: ActionCancel},
			}},
		},
	}
}

// requireAdmin re-checks the gate. On denial the workflow is abandoned and
// the user lands back on the main menu.
func (e *Engine) requireAdmin(userID int64) (Decision, bool) {
	if e.gate.Allowed(userID, auth.OpMutate) {
		return Decision{}, true
	}
	return Decision{Next: NewSession(), Render: Render{Text: textNotAdmin}, Menu: true}, false
}

// Reprompt re-renders the current step of s without changing state. The
// dispatcher uses it to put a user back on track after a rejected input.
func (e *Engine) Reprompt(s Session, userID int64) Decision {
	if !knownState(s.State) || s.Scratch == nil {
		s = NewSession()
	}
	return e.reprompt(s, userID)
}

// reprompt re-renders the current step without changing state, so an
// unrecognized event never loses collected input.
func (e *Engine) reprompt(s Session, userID int64) Decision {
	switch s.State {
	case StateAwaitName:
		return Decision{Next: s, Render: Render{Text: textAskName, Buttons: [][]Button{cancelRow()}}}
	case StateAwaitLocation:
		return Decision{Next: s, Render: Render{Text: textAskLocation, Buttons: [][]Button{cancelRow()}}}
	case StateAwaitLandmark:
		return Decision{Next: s, Render: Render{Text: textAskLandmark, Buttons: [][]Button{skipCancelRow()}}}
	case StateAwaitNotes:
		return Decision{Next: s, Render: Render{Text: textAskNotes, Buttons: [][]Button{skipCancelRow()}}}
	case StateAwaitRating:
		return Decision{Next: s, Render: Render{Text: textAskRating, Buttons: starRows()}}
	case StateAwaitDeleteConfirm:
		if s.scratch(ScratchDeleteID) != "" {
			return Decision{
				Next: s,
				Render: Render{
					Text: "Delete restaurant #" + s.scratch(ScratchDeleteID) + "?",
					Buttons: [][]Button{{
						{Label: "Yes, delete", Action: ActionDeleteConfirm, Payload: s.scratch(ScratchDeleteID)},
						{Label: "✖ Cancel", Action: ActionCancel},
					}},
				},
			}
		}
		return Decision{Next: s, Command: &Command{Op: OpListDelete}}
	}
	return Decision{Next: s, Render: Render{Text: textWelcome}, Menu: true}
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
