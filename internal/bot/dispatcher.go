package bot

import (
	"context"

	"log/slog"

	"github.com/m3rciful/restobot/core/config"
	"github.com/m3rciful/restobot/core/logger"
	"github.com/m3rciful/restobot/internal/auth"
	"github.com/m3rciful/restobot/internal/flow"
	"github.com/m3rciful/restobot/internal/restaurant"
)

const componentDispatch = "bot.dispatch"

// User-facing failure texts. Persistence details never reach the chat.
const (
	textNotFound   = "That restaurant is no longer in the registry."
	textGeneric    = "Something went wrong. Please try again."
	textForbidden  = "This action is available to administrators only."
	textEmptyList  = "The registry is empty."
	textNoRecs     = "No recommendations yet. Rate a few restaurants first."
	textDeleted    = "Restaurant deleted."
	textRatedEmpty = "Rating saved."
)

// Dispatcher connects inbound events to the flow engine and the registry.
// It owns error mapping: every failure class resolves to a defined next
// state, so a user can never get stuck mid-workflow.
type Dispatcher struct {
	engine    *flow.Engine
	sessions  *Sessions
	registry  *restaurant.Service
	gate      *auth.Gate
	recommend config.RecommendConfig
}

// NewDispatcher wires the dispatcher from its collaborators.
func NewDispatcher(engine *flow.Engine, sessions *Sessions, registry *restaurant.Service, gate *auth.Gate, rec config.RecommendConfig) *Dispatcher {
	return &Dispatcher{
		engine:    engine,
		sessions:  sessions,
		registry:  registry,
		gate:      gate,
		recommend: rec,
	}
}

// Dispatch handles one inbound event end to end and returns the replies to
// send, in order. Events from the same user are serialized; different users
// proceed concurrently.
func (d *Dispatcher) Dispatch(ctx context.Context, ev flow.Event) []flow.Render {
	lock := d.sessions.Lock(ev.UserID)
	lock.Lock()
	defer lock.Unlock()

	prior := d.sessions.Get(ev.UserID)
	decision := d.engine.Decide(prior, ev)

	if prior.State != decision.Next.State {
		logger.Debug(ctx, "flow", "flow.transition",
			slog.String("state", string(prior.State)),
			slog.String("next_state", string(decision.Next.State)),
		)
	}

	var replies []flow.Render
	if !decision.Render.Empty() {
		replies = append(replies, decision.Render)
	}

	if decision.Command != nil {
		result, err := d.execute(ctx, ev.UserID, *decision.Command)
		if err != nil {
			return d.resolveFailure(ctx, ev.UserID, prior, err)
		}
		if !result.Empty() {
			replies = append(replies, result)
		}
		// An empty registry leaves nothing to pick; don't hold the user
		// in the delete confirmation step.
		if decision.Command.Op == flow.OpListDelete && len(result.Buttons) == 0 {
			decision.Next = flow.NewSession()
			decision.Menu = true
		}
	}

	d.sessions.Put(ev.UserID, decision.Next)
	if decision.Menu {
		replies = append(replies, d.engine.MainMenu(ev.UserID))
	}
	return replies
}

// execute runs one registry command. Mutations re-check the gate here as
// well: the engine's check and this one can disagree only if a session was
// forged, and then the registry must still stay untouched.
func (d *Dispatcher) execute(ctx context.Context, userID int64, cmd flow.Command) (flow.Render, error) {
	switch cmd.Op {
	case flow.OpCreate:
		if !d.gate.Allowed(userID, auth.OpMutate) {
			return flow.Render{}, &auth.AuthorizationError{UserID: userID, Op: auth.OpMutate}
		}
		rec, err := d.registry.Create(ctx, cmd.Name, cmd.Location, cmd.Landmark, cmd.Notes)
		if err != nil {
			return flow.Render{}, err
		}
		return renderCreated(rec), nil

	case flow.OpDelete:
		if !d.gate.Allowed(userID, auth.OpMutate) {
			return flow.Render{}, &auth.AuthorizationError{UserID: userID, Op: auth.OpMutate}
		}
		if err := d.registry.Delete(ctx, cmd.ID); err != nil {
			return flow.Render{}, err
		}
		return flow.Render{Text: textDeleted}, nil

	case flow.OpRate:
		if !d.gate.Allowed(userID, auth.OpRate) {
			return flow.Render{}, &auth.AuthorizationError{UserID: userID, Op: auth.OpRate}
		}
		if err := d.registry.Rate(ctx, cmd.ID, cmd.Rating); err != nil {
			return flow.Render{}, err
		}
		rec, err := d.registry.Get(ctx, cmd.ID)
		if err != nil {
			return flow.Render{Text: textRatedEmpty}, nil
		}
		return renderRated(rec), nil

	case flow.OpList:
		admin := d.gate.Allowed(userID, auth.OpMutate)
		return renderList(d.registry.List(ctx), admin), nil

	case flow.OpListDelete:
		return renderDeleteCandidates(d.registry.List(ctx)), nil

	case flow.OpRecommend:
		recs := d.registry.Recommend(ctx, d.recommend.MinRating, d.recommend.Limit)
		if len(recs) == 0 {
			// Nothing clears the threshold yet; show every rated
			// restaurant instead, best first.
			recs = d.registry.Recommend(ctx, restaurant.RatingMin, d.recommend.Limit)
		}
		return renderRecommendations(recs, d.recommend.MinRating), nil
	}
	logger.Warn(ctx, componentDispatch, "dispatch.unknown_op",
		slog.String("op", string(cmd.Op)),
	)
	return flow.Render{}, nil
}

// resolveFailure maps a registry error to its recovery: validation re-prompts
// the step the user was on, everything else abandons the workflow and shows
// the main menu again.
func (d *Dispatcher) resolveFailure(ctx context.Context, userID int64, prior flow.Session, err error) []flow.Render {
	switch {
	case restaurant.IsValidation(err):
		d.sessions.Put(userID, prior)
		decision := d.engine.Reprompt(prior, userID)
		return []flow.Render{decision.Render}

	case restaurant.IsNotFound(err):
		d.sessions.Reset(userID)
		return []flow.Render{{Text: textNotFound}, d.engine.MainMenu(userID)}

	case auth.IsAuthorization(err):
		logger.Warn(ctx, componentDispatch, "dispatch.denied",
			slog.String("error", err.Error()),
		)
		d.sessions.Reset(userID)
		return []flow.Render{{Text: textForbidden}, d.engine.MainMenu(userID)}

	default:
		logger.Error(ctx, componentDispatch, "dispatch.failed",
			slog.String("code", errorCode(err)),
			slog.String("error", err.Error()),
		)
		d.sessions.Reset(userID)
		return []flow.Render{{Text: textGeneric}, d.engine.MainMenu(userID)}
	}
}

// errorCode extracts the stable class code carried by registry errors.
func errorCode(err error) string {
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		return c.Code()
	}
	return "INTERNAL"
}
