package flow

// EventKind distinguishes the three inbound event shapes the transport
// delivers: slash commands, inline button presses, and free-text messages.
type EventKind string

const (
	// KindCommand is a slash command such as /start.
	KindCommand EventKind = "command"
	// KindButton is an inline button press carrying an action key and payload.
	KindButton EventKind = "button"
	// KindText is a plain text message.
	KindText EventKind = "text"
)

// Supported slash commands.
const (
	CommandStart = "/start"
	CommandAdmin = "/admin"
)

// Button action keys. The same keys are used as callback uniques on the wire.
const (
	ActionMenuAdd       = "menu_add"
	ActionMenuView      = "menu_view"
	ActionMenuRecommend = "menu_recommend"
	ActionMenuDelete    = "menu_delete"
	ActionCancel        = "cancel"
	ActionSkip          = "add_skip"
	ActionRate          = "rate"
	ActionRateScore     = "rate_score"
	ActionDeletePick    = "delete_pick"
	ActionDeleteConfirm = "delete_confirm"
)

// Event is one inbound user event, already resolved to a user identity.
type Event struct {
	UserID  int64
	Kind    EventKind
	Command string // set for KindCommand
	Action  string // set for KindButton
	Payload string // set for KindButton
	Text    string // set for KindText
}

// OpKind names the registry operation a decision asks the dispatcher to run.
type OpKind string

const (
	// OpCreate inserts a new restaurant from the collected scratchpad fields.
	OpCreate OpKind = "create"
	// OpDelete removes a restaurant by id.
	OpDelete OpKind = "delete"
	// OpRate stores a rating for a restaurant.
	OpRate OpKind = "rate"
	// OpList renders the full restaurant list.
	OpList OpKind = "list"
	// OpListDelete renders the list as delete candidates for an admin.
	OpListDelete OpKind = "list_delete"
	// OpRecommend renders the recommendation list.
	OpRecommend OpKind = "recommend"
)

// Command is the registry operation emitted by a transition.
type Command struct {
	Op       OpKind
	Name     string
	Location string
	Landmark *string
	Notes    *string
	ID       int64
	Rating   int
}
