package flow

import (
	"testing"

	"github.com/m3rciful/restobot/internal/auth"
)

const (
	adminID int64 = 100
	guestID int64 = 200
)

func newTestEngine() *Engine {
	return NewEngine(auth.NewGate([]int64{adminID}))
}

func buttonEvent(userID int64, action, payload string) Event {
	return Event{UserID: userID, Kind: KindButton, Action: action, Payload: payload}
}

func textEvent(userID int64, text string) Event {
	return Event{UserID: userID, Kind: KindText, Text: text}
}

func TestStartResetsWorkflow(t *testing.T) {
	e := newTestEngine()
	s := NewSession().withValue(StateAwaitLocation, ScratchName, "Oqtepa")

	d := e.Decide(s, Event{UserID: adminID, Kind: KindCommand, Command: CommandStart})
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
	if len(d.Next.Scratch) != 0 {
		t.Fatalf("scratch not cleared: %v", d.Next.Scratch)
	}
	if !d.Menu {
		t.Fatal("expected main menu after /start")
	}
}

func TestCancelAbandonsFromAnyState(t *testing.T) {
	e := newTestEngine()
	for _, st := range []State{
		StateAwaitName, StateAwaitLocation, StateAwaitLandmark,
		StateAwaitNotes, StateAwaitRating, StateAwaitDeleteConfirm,
	} {
		s := NewSession().withState(st)
		d := e.Decide(s, buttonEvent(adminID, ActionCancel, ""))
		if d.Next.State != StateIdle {
			t.Errorf("cancel from %q: state = %q, want idle", st, d.Next.State)
		}
		if d.Command != nil {
			t.Errorf("cancel from %q emitted command %v", st, d.Command)
		}
	}
}

func TestAdminCommand(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), Event{UserID: adminID, Kind: KindCommand, Command: CommandAdmin})
	if d.Render.Text != textAdminPanel {
		t.Fatalf("admin got %q", d.Render.Text)
	}

	d = e.Decide(NewSession(), Event{UserID: guestID, Kind: KindCommand, Command: CommandAdmin})
	if d.Render.Text != textNotAdmin {
		t.Fatalf("guest got %q", d.Render.Text)
	}
	if d.Next.State != StateIdle {
		t.Fatalf("guest state = %q, want idle", d.Next.State)
	}
}

func TestAddHappyPath(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), buttonEvent(adminID, ActionMenuAdd, ""))
	if d.Next.State != StateAwaitName {
		t.Fatalf("state = %q, want await_name", d.Next.State)
	}

	d = e.Decide(d.Next, textEvent(adminID, "  Oqtepa Lavash  "))
	if d.Next.State != StateAwaitLocation {
		t.Fatalf("state = %q, want await_location", d.Next.State)
	}
	if got := d.Next.Scratch[ScratchName]; got != "Oqtepa Lavash" {
		t.Fatalf("name scratch = %q", got)
	}

	d = e.Decide(d.Next, textEvent(adminID, "Chilonzor"))
	if d.Next.State != StateAwaitLandmark {
		t.Fatalf("state = %q, want await_landmark", d.Next.State)
	}

	d = e.Decide(d.Next, textEvent(adminID, "next to the metro"))
	if d.Next.State != StateAwaitNotes {
		t.Fatalf("state = %q, want await_notes", d.Next.State)
	}

	d = e.Decide(d.Next, textEvent(adminID, "open late"))
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
	if d.Command == nil || d.Command.Op != OpCreate {
		t.Fatalf("command = %v, want create", d.Command)
	}
	if d.Command.Name != "Oqtepa Lavash" || d.Command.Location != "Chilonzor" {
		t.Fatalf("command fields = %q / %q", d.Command.Name, d.Command.Location)
	}
	if d.Command.Landmark == nil || *d.Command.Landmark != "next to the metro" {
		t.Fatalf("landmark = %v", d.Command.Landmark)
	}
	if d.Command.Notes == nil || *d.Command.Notes != "open late" {
		t.Fatalf("notes = %v", d.Command.Notes)
	}
	if len(d.Next.Scratch) != 0 {
		t.Fatalf("scratch survived completion: %v", d.Next.Scratch)
	}
}

func TestAddSkipsOptionalSteps(t *testing.T) {
	e := newTestEngine()
	s := NewSession().withValue(StateAwaitLandmark, ScratchName, "Bek")
	s.Scratch[ScratchLocation] = "Yunusobod"

	d := e.Decide(s, buttonEvent(adminID, ActionSkip, ""))
	if d.Next.State != StateAwaitNotes {
		t.Fatalf("state = %q, want await_notes", d.Next.State)
	}

	d = e.Decide(d.Next, buttonEvent(adminID, ActionSkip, ""))
	if d.Command == nil || d.Command.Op != OpCreate {
		t.Fatalf("command = %v, want create", d.Command)
	}
	if d.Command.Landmark != nil || d.Command.Notes != nil {
		t.Fatalf("skipped fields set: %v %v", d.Command.Landmark, d.Command.Notes)
	}
}

func TestAddRejectsBlankRequiredInput(t *testing.T) {
	e := newTestEngine()
	s := NewSession().withState(StateAwaitName)

	d := e.Decide(s, textEvent(adminID, "   "))
	if d.Next.State != StateAwaitName {
		t.Fatalf("state = %q, want await_name", d.Next.State)
	}
	if d.Render.Text != textNameEmpty {
		t.Fatalf("render = %q", d.Render.Text)
	}
}

func TestAddDeniedForGuest(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), buttonEvent(guestID, ActionMenuAdd, ""))
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
	if d.Command != nil {
		t.Fatalf("guest add emitted command %v", d.Command)
	}
	if d.Render.Text != textNotAdmin {
		t.Fatalf("render = %q", d.Render.Text)
	}
}

func TestAdminRecheckedMidFlow(t *testing.T) {
	// A session captured in await_name must not advance for a non-admin,
	// even though entering that state normally requires passing the gate.
	e := newTestEngine()
	s := NewSession().withState(StateAwaitName)

	d := e.Decide(s, textEvent(guestID, "Smuggled"))
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
	if d.Command != nil {
		t.Fatalf("command emitted for guest: %v", d.Command)
	}
}

func TestViewAndRecommendOpenToEveryone(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), buttonEvent(guestID, ActionMenuView, ""))
	if d.Command == nil || d.Command.Op != OpList {
		t.Fatalf("view command = %v", d.Command)
	}

	d = e.Decide(NewSession(), buttonEvent(guestID, ActionMenuRecommend, ""))
	if d.Command == nil || d.Command.Op != OpRecommend {
		t.Fatalf("recommend command = %v", d.Command)
	}
}

func TestRateFlow(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), buttonEvent(guestID, ActionRate, "7"))
	if d.Next.State != StateAwaitRating {
		t.Fatalf("state = %q, want await_rating", d.Next.State)
	}
	if got := d.Next.Scratch[ScratchRateID]; got != "7" {
		t.Fatalf("rate id scratch = %q", got)
	}

	d = e.Decide(d.Next, buttonEvent(guestID, ActionRateScore, "4"))
	if d.Command == nil || d.Command.Op != OpRate {
		t.Fatalf("command = %v, want rate", d.Command)
	}
	if d.Command.ID != 7 || d.Command.Rating != 4 {
		t.Fatalf("rate command = id %d score %d", d.Command.ID, d.Command.Rating)
	}
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
}

func TestRateRejectsOutOfRangeScore(t *testing.T) {
	e := newTestEngine()
	s := NewSession().withValue(StateAwaitRating, ScratchRateID, "7")

	for _, payload := range []string{"0", "6", "-1", "abc", ""} {
		d := e.Decide(s, buttonEvent(guestID, ActionRateScore, payload))
		if d.Next.State != StateAwaitRating {
			t.Errorf("payload %q: state = %q, want await_rating", payload, d.Next.State)
		}
		if d.Command != nil {
			t.Errorf("payload %q emitted command %v", payload, d.Command)
		}
	}
}

func TestRateIgnoresUnrelatedText(t *testing.T) {
	e := newTestEngine()
	s := NewSession().withValue(StateAwaitRating, ScratchRateID, "7")

	d := e.Decide(s, textEvent(guestID, "five please"))
	if d.Next.State != StateAwaitRating {
		t.Fatalf("state = %q, want await_rating", d.Next.State)
	}
	if got := d.Next.Scratch[ScratchRateID]; got != "7" {
		t.Fatalf("rate id lost: %q", got)
	}
}

func TestDeleteFlow(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), buttonEvent(adminID, ActionMenuDelete, ""))
	if d.Next.State != StateAwaitDeleteConfirm {
		t.Fatalf("state = %q, want await_delete_confirm", d.Next.State)
	}
	if d.Command == nil || d.Command.Op != OpListDelete {
		t.Fatalf("command = %v, want list_delete", d.Command)
	}

	d = e.Decide(d.Next, buttonEvent(adminID, ActionDeletePick, "3"))
	if d.Next.State != StateAwaitDeleteConfirm {
		t.Fatalf("state = %q, want await_delete_confirm", d.Next.State)
	}
	if got := d.Next.Scratch[ScratchDeleteID]; got != "3" {
		t.Fatalf("delete id scratch = %q", got)
	}
	if d.Command != nil {
		t.Fatalf("pick emitted command %v", d.Command)
	}

	d = e.Decide(d.Next, buttonEvent(adminID, ActionDeleteConfirm, "3"))
	if d.Command == nil || d.Command.Op != OpDelete || d.Command.ID != 3 {
		t.Fatalf("command = %v, want delete id 3", d.Command)
	}
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
}

func TestDeleteConfirmRecheckedForGuest(t *testing.T) {
	e := newTestEngine()
	s := NewSession().withValue(StateAwaitDeleteConfirm, ScratchDeleteID, "3")

	d := e.Decide(s, buttonEvent(guestID, ActionDeleteConfirm, "3"))
	if d.Command != nil {
		t.Fatalf("guest confirm emitted command %v", d.Command)
	}
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
}

func TestDeleteConfirmOnlyValidInDeleteState(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), buttonEvent(adminID, ActionDeleteConfirm, "3"))
	if d.Command != nil {
		t.Fatalf("stray confirm emitted command %v", d.Command)
	}
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
}

func TestUnknownStateNormalizedToIdle(t *testing.T) {
	e := newTestEngine()
	s := Session{State: State("corrupted"), Scratch: map[string]string{"x": "y"}}

	d := e.Decide(s, buttonEvent(guestID, ActionMenuView, ""))
	if d.Command == nil || d.Command.Op != OpList {
		t.Fatalf("command = %v, want list", d.Command)
	}
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
}

func TestDecideDoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	s := NewSession().withValue(StateAwaitName, ScratchRateID, "9")

	_ = e.Decide(s, textEvent(adminID, "Khiva"))
	if s.State != StateAwaitName {
		t.Fatalf("input state mutated to %q", s.State)
	}
	if len(s.Scratch) != 1 || s.Scratch[ScratchRateID] != "9" {
		t.Fatalf("input scratch mutated: %v", s.Scratch)
	}
}

func TestMainMenuHidesMutationsFromGuests(t *testing.T) {
	e := newTestEngine()

	admin := e.MainMenu(adminID)
	if len(admin.Buttons) != 2 {
		t.Fatalf("admin menu rows = %d, want 2", len(admin.Buttons))
	}

	guest := e.MainMenu(guestID)
	if len(guest.Buttons) != 1 {
		t.Fatalf("guest menu rows = %d, want 1", len(guest.Buttons))
	}
	for _, row := range guest.Buttons {
		for _, b := range row {
			if b.Action == ActionMenuAdd || b.Action == ActionMenuDelete {
				t.Fatalf("guest menu exposes %q", b.Action)
			}
		}
	}
}

func TestDeletePickFromIdleAsksForConfirmation(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), buttonEvent(adminID, ActionDeletePick, "5"))
	if d.Next.State != StateAwaitDeleteConfirm {
		t.Fatalf("state = %q, want delete confirm", d.Next.State)
	}
	if d.Next.scratch(ScratchDeleteID) != "5" {
		t.Fatalf("scratch delete id = %q", d.Next.scratch(ScratchDeleteID))
	}
	if d.Command != nil {
		t.Fatalf("pick emitted command %v", d.Command)
	}

	d = e.Decide(d.Next, buttonEvent(adminID, ActionDeleteConfirm, "5"))
	if d.Command == nil || d.Command.Op != OpDelete || d.Command.ID != 5 {
		t.Fatalf("confirm command = %v", d.Command)
	}
}

func TestDeletePickFromIdleDeniedForGuest(t *testing.T) {
	e := newTestEngine()

	d := e.Decide(NewSession(), buttonEvent(guestID, ActionDeletePick, "5"))
	if d.Next.State != StateIdle {
		t.Fatalf("state = %q, want idle", d.Next.State)
	}
	if d.Command != nil {
		t.Fatalf("guest pick emitted command %v", d.Command)
	}
}
