package bot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/m3rciful/restobot/core/config"
	"github.com/m3rciful/restobot/internal/auth"
	"github.com/m3rciful/restobot/internal/flow"
	"github.com/m3rciful/restobot/internal/restaurant"
)

const (
	adminID int64 = 100
	guestID int64 = 200
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *restaurant.Service) {
	t.Helper()
	store, err := restaurant.NewFileStore(filepath.Join(t.TempDir(), "restaurants.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	registry, err := restaurant.NewService(context.Background(), store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	gate := auth.NewGate([]int64{adminID})
	d := NewDispatcher(
		flow.NewEngine(gate),
		NewSessions(),
		registry,
		gate,
		config.RecommendConfig{MinRating: 4},
	)
	return d, registry
}

func button(userID int64, action, payload string) flow.Event {
	return flow.Event{UserID: userID, Kind: flow.KindButton, Action: action, Payload: payload}
}

func text(userID int64, msg string) flow.Event {
	return flow.Event{UserID: userID, Kind: flow.KindText, Text: msg}
}

func lastText(replies []flow.Render) string {
	for i := len(replies) - 1; i >= 0; i-- {
		if replies[i].Text != "" {
			return replies[i].Text
		}
	}
	return ""
}

func addRestaurant(t *testing.T, d *Dispatcher, name, location string) {
	t.Helper()
	ctx := context.Background()
	d.Dispatch(ctx, button(adminID, flow.ActionMenuAdd, ""))
	d.Dispatch(ctx, text(adminID, name))
	d.Dispatch(ctx, text(adminID, location))
	d.Dispatch(ctx, button(adminID, flow.ActionSkip, ""))
	replies := d.Dispatch(ctx, button(adminID, flow.ActionSkip, ""))
	if got := lastText(replies); !strings.HasPrefix(got, "Added ") {
		t.Fatalf("add %q finished with %q", name, got)
	}
}

func TestDispatchAddFlowPersists(t *testing.T) {
	d, registry := newTestDispatcher(t)
	addRestaurant(t, d, "Oqtepa Lavash", "Chilonzor")

	records := registry.List(context.Background())
	if len(records) != 1 {
		t.Fatalf("registry holds %d records, want 1", len(records))
	}
	if records[0].Name != "Oqtepa Lavash" {
		t.Fatalf("stored name = %q", records[0].Name)
	}
	if d.sessions.Get(adminID).State != flow.StateIdle {
		t.Fatalf("session not idle after completed add")
	}
}

func TestDispatchListOffersRateButtons(t *testing.T) {
	d, _ := newTestDispatcher(t)
	addRestaurant(t, d, "Afsona", "Center")

	replies := d.Dispatch(context.Background(), button(guestID, flow.ActionMenuView, ""))
	if len(replies) == 0 {
		t.Fatal("no reply to list")
	}
	listing := replies[0]
	if !strings.Contains(listing.Text, "Afsona") {
		t.Fatalf("list text = %q", listing.Text)
	}
	if len(listing.Buttons) != 1 || listing.Buttons[0][0].Action != flow.ActionRate {
		t.Fatalf("list buttons = %v", listing.Buttons)
	}
}

func TestDispatchRateFlow(t *testing.T) {
	d, registry := newTestDispatcher(t)
	addRestaurant(t, d, "Afsona", "Center")
	id := registry.List(context.Background())[0].ID

	ctx := context.Background()
	d.Dispatch(ctx, button(guestID, flow.ActionRate, "1"))
	replies := d.Dispatch(ctx, button(guestID, flow.ActionRateScore, "5"))
	if got := lastText(replies); !strings.HasPrefix(got, "Saved: Afsona") {
		t.Fatalf("rate reply = %q", got)
	}

	rec, err := registry.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Rating != 5 {
		t.Fatalf("rating = %d, want 5", rec.Rating)
	}
}

func TestDispatchRateMissingRestaurantResetsToIdle(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, button(guestID, flow.ActionRate, "999"))
	replies := d.Dispatch(ctx, button(guestID, flow.ActionRateScore, "4"))
	if replies[0].Text != textNotFound {
		t.Fatalf("reply = %q, want not-found text", replies[0].Text)
	}
	if d.sessions.Get(guestID).State != flow.StateIdle {
		t.Fatal("session not reset after not-found")
	}
}

func TestDispatchGuestCannotMutate(t *testing.T) {
	d, registry := newTestDispatcher(t)
	addRestaurant(t, d, "Afsona", "Center")
	ctx := context.Background()

	replies := d.Dispatch(ctx, button(guestID, flow.ActionMenuAdd, ""))
	if replies[0].Text == "" || d.sessions.Get(guestID).State != flow.StateIdle {
		t.Fatal("guest add not denied cleanly")
	}

	d.Dispatch(ctx, button(guestID, flow.ActionMenuDelete, ""))
	if d.sessions.Get(guestID).State != flow.StateIdle {
		t.Fatal("guest delete not denied cleanly")
	}

	if got := registry.List(ctx); len(got) != 1 {
		t.Fatalf("registry changed by guest: %d records", len(got))
	}
}

func TestDispatchDeleteFlow(t *testing.T) {
	d, registry := newTestDispatcher(t)
	addRestaurant(t, d, "Afsona", "Center")
	ctx := context.Background()
	id := registry.List(ctx)[0].ID

	replies := d.Dispatch(ctx, button(adminID, flow.ActionMenuDelete, ""))
	if len(replies) == 0 || len(replies[0].Buttons) == 0 {
		t.Fatalf("no delete candidates rendered: %v", replies)
	}

	d.Dispatch(ctx, button(adminID, flow.ActionDeletePick, "1"))
	replies = d.Dispatch(ctx, button(adminID, flow.ActionDeleteConfirm, "1"))
	if got := lastText(replies); got != textDeleted && !strings.Contains(got, "deleted") {
		t.Fatalf("delete reply = %q", got)
	}
	if _, err := registry.Get(ctx, id); !restaurant.IsNotFound(err) {
		t.Fatalf("record survived delete: %v", err)
	}
}

func TestDispatchDeleteOnEmptyRegistry(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	replies := d.Dispatch(ctx, button(adminID, flow.ActionMenuDelete, ""))
	if replies[0].Text != textEmptyList {
		t.Fatalf("reply = %q, want empty-registry text", replies[0].Text)
	}
	if d.sessions.Get(adminID).State != flow.StateIdle {
		t.Fatal("user held in delete step with nothing to delete")
	}
}

func TestDispatchRecommendEmpty(t *testing.T) {
	d, _ := newTestDispatcher(t)
	addRestaurant(t, d, "Unrated", "Somewhere")

	replies := d.Dispatch(context.Background(), button(guestID, flow.ActionMenuRecommend, ""))
	if replies[0].Text != textNoRecs {
		t.Fatalf("reply = %q, want no-recommendations text", replies[0].Text)
	}
}

func TestDispatchRecommendFiltersAndSorts(t *testing.T) {
	d, registry := newTestDispatcher(t)
	addRestaurant(t, d, "Low", "loc")
	addRestaurant(t, d, "Top", "loc")
	ctx := context.Background()

	records := registry.List(ctx)
	registry.Rate(ctx, records[0].ID, 2)
	registry.Rate(ctx, records[1].ID, 5)

	replies := d.Dispatch(ctx, button(guestID, flow.ActionMenuRecommend, ""))
	got := replies[0].Text
	if !strings.Contains(got, "Top") {
		t.Fatalf("recommendation missing top pick: %q", got)
	}
	if strings.Contains(got, "Low") {
		t.Fatalf("recommendation includes below-threshold record: %q", got)
	}
}

func TestDispatchScratchIsolationBetweenUsers(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, button(adminID, flow.ActionMenuAdd, ""))
	d.Dispatch(ctx, text(adminID, "Admin draft"))

	// Another user's traffic must not touch the admin's workflow.
	d.Dispatch(ctx, button(guestID, flow.ActionMenuView, ""))
	d.Dispatch(ctx, text(guestID, "guest chatter"))

	sess := d.sessions.Get(adminID)
	if sess.State != flow.StateAwaitLocation {
		t.Fatalf("admin state = %q, want await_location", sess.State)
	}
	if sess.Scratch[flow.ScratchName] != "Admin draft" {
		t.Fatalf("admin scratch = %v", sess.Scratch)
	}
	if d.sessions.Get(guestID).State != flow.StateIdle {
		t.Fatal("guest state leaked out of idle")
	}
}

func TestDispatchSerializesPerUser(t *testing.T) {
	d, registry := newTestDispatcher(t)
	ctx := context.Background()

	// Concurrent add flows from distinct users must all complete without
	// corrupting each other's scratchpads.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.Dispatch(ctx, button(adminID, flow.ActionMenuView, ""))
			d.Dispatch(ctx, button(guestID+int64(n), flow.ActionMenuRecommend, ""))
		}(i)
	}
	wg.Wait()

	addRestaurant(t, d, "After the storm", "loc")
	if got := registry.List(ctx); len(got) != 1 {
		t.Fatalf("registry holds %d records, want 1", len(got))
	}
}

func TestDispatchCancelMidFlow(t *testing.T) {
	d, registry := newTestDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, button(adminID, flow.ActionMenuAdd, ""))
	d.Dispatch(ctx, text(adminID, "Doomed"))
	replies := d.Dispatch(ctx, button(adminID, flow.ActionCancel, ""))
	if replies[0].Text == "" {
		t.Fatal("cancel produced no acknowledgement")
	}
	if d.sessions.Get(adminID).State != flow.StateIdle {
		t.Fatal("session not idle after cancel")
	}
	if got := registry.List(ctx); len(got) != 0 {
		t.Fatalf("cancelled add reached the registry: %d records", len(got))
	}
}

func TestDispatchStartShowsMenu(t *testing.T) {
	d, _ := newTestDispatcher(t)

	replies := d.Dispatch(context.Background(), flow.Event{
		UserID: guestID, Kind: flow.KindCommand, Command: flow.CommandStart,
	})
	if len(replies) < 2 {
		t.Fatalf("expected welcome plus menu, got %d replies", len(replies))
	}
	menu := replies[len(replies)-1]
	if len(menu.Buttons) == 0 {
		t.Fatal("menu has no buttons")
	}
}

func TestDispatchListShowsDeleteButtonsForAdmin(t *testing.T) {
	d, _ := newTestDispatcher(t)
	addRestaurant(t, d, "Caravan", "Mirabad")

	replies := d.Dispatch(context.Background(), button(adminID, flow.ActionMenuView, ""))
	if len(replies) == 0 {
		t.Fatal("no reply to list")
	}
	row := replies[0].Buttons[0]
	if len(row) != 2 {
		t.Fatalf("admin list row has %d buttons, want rate and delete", len(row))
	}
	if row[0].Action != flow.ActionRate || row[1].Action != flow.ActionDeletePick {
		t.Fatalf("admin list row = %v", row)
	}
}

func TestDispatchDeleteFromViewList(t *testing.T) {
	d, registry := newTestDispatcher(t)
	addRestaurant(t, d, "Caravan", "Mirabad")
	ctx := context.Background()

	replies := d.Dispatch(ctx, button(adminID, flow.ActionDeletePick, "1"))
	if got := lastText(replies); !strings.Contains(got, "Delete restaurant #1") {
		t.Fatalf("confirmation = %q", got)
	}
	replies = d.Dispatch(ctx, button(adminID, flow.ActionDeleteConfirm, "1"))
	if got := lastText(replies); !strings.Contains(got, "deleted") {
		t.Fatalf("delete reply = %q", got)
	}
	if records := registry.List(ctx); len(records) != 0 {
		t.Fatalf("registry still holds %d records", len(records))
	}
}

func TestDispatchRecommendFallsBackToRatedList(t *testing.T) {
	d, registry := newTestDispatcher(t)
	addRestaurant(t, d, "Decent", "loc")
	addRestaurant(t, d, "SoSo", "loc")
	addRestaurant(t, d, "Unrated", "loc")
	ctx := context.Background()

	records := registry.List(ctx)
	registry.Rate(ctx, records[0].ID, 3)
	registry.Rate(ctx, records[1].ID, 2)

	replies := d.Dispatch(ctx, button(guestID, flow.ActionMenuRecommend, ""))
	got := replies[0].Text
	if got == textNoRecs {
		t.Fatalf("rated records below threshold rendered as %q", got)
	}
	decent := strings.Index(got, "Decent")
	soso := strings.Index(got, "SoSo")
	if decent < 0 || soso < 0 {
		t.Fatalf("fallback list missing rated records: %q", got)
	}
	if decent > soso {
		t.Fatalf("fallback list not sorted best first: %q", got)
	}
	if strings.Contains(got, "Unrated") {
		t.Fatalf("fallback list includes unrated record: %q", got)
	}
	if strings.Contains(got, "🏆") {
		t.Fatalf("below-threshold records carry the trophy mark: %q", got)
	}
}

func TestDispatchBrowseScreensEndWithMenu(t *testing.T) {
	d, _ := newTestDispatcher(t)
	addRestaurant(t, d, "Afsona", "Center")
	ctx := context.Background()

	for _, action := range []string{flow.ActionMenuView, flow.ActionMenuRecommend} {
		replies := d.Dispatch(ctx, button(guestID, action, ""))
		if len(replies) < 2 {
			t.Fatalf("%s: replies = %v, want trailing menu", action, replies)
		}
		menu := replies[len(replies)-1]
		if len(menu.Buttons) == 0 || menu.Buttons[0][0].Action != flow.ActionMenuView {
			t.Fatalf("%s: trailing reply is not the main menu: %v", action, menu)
		}
	}
}
