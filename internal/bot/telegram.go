package bot

import (
	coreconfig "github.com/m3rciful/restobot/core/config"
	tg "github.com/m3rciful/restobot/core/telegram"
	"github.com/m3rciful/restobot/core/telegram/callbacks"
	"github.com/m3rciful/restobot/core/telegram/commands"
	tghelpers "github.com/m3rciful/restobot/core/telegram/helpers"
	"github.com/m3rciful/restobot/core/telegram/keyboard"
	tgmiddleware "github.com/m3rciful/restobot/core/telegram/middleware"
	"github.com/m3rciful/restobot/core/telegram/router"
	"github.com/m3rciful/restobot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

const textMenuCaption = "Choose an action:"

// callbackActions lists every inline action the flow engine understands.
// Each one is registered as a callback unique on the wire.
var callbackActions = []string{
	flow.ActionMenuAdd,
	flow.ActionMenuView,
	flow.ActionMenuRecommend,
	flow.ActionMenuDelete,
	flow.ActionCancel,
	flow.ActionSkip,
	flow.ActionRate,
	flow.ActionRateScore,
	flow.ActionDeletePick,
	flow.ActionDeleteConfirm,
}

// BuildRunOptions wires the dispatcher into a complete telebot runtime:
// command registry, callback routes, text route, and the middleware chain.
func BuildRunOptions(cfg *coreconfig.Config, d *Dispatcher) tg.RunOptions {
	reg := tg.NewRegistry()

	reg.RegisterCommand(flow.CommandStart, commands.Command{
		Handler:     d.commandHandler(flow.CommandStart),
		Description: "Open the restaurant menu",
	})
	reg.RegisterCommand(flow.CommandAdmin, commands.Command{
		Handler:     d.commandHandler(flow.CommandAdmin),
		Description: "Admin panel",
		AdminOnly:   true,
	})

	for _, action := range callbackActions {
		_ = reg.RegisterCallback(action, d.callbackHandler(action))
	}

	denyAdmin := func(c tele.Context) error {
		return tghelpers.SendText(c, textForbidden)
	}
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		Admin: tgmiddleware.NewAdminOptions(cfg.Telegram.AdminIDs, denyAdmin),
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoute(d.textHandler()))

	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, "Too fast. Give it a second.")
	}

	return tg.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(cfg, onLimited),
		Routes:      routes,
	}
}

func (d *Dispatcher) commandHandler(command string) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ev := flow.Event{
			UserID:  sender.ID,
			Kind:    flow.KindCommand,
			Command: command,
		}
		return d.deliver(c, ev)
	}
}

func (d *Dispatcher) callbackHandler(action string) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ev := flow.Event{
			UserID:  sender.ID,
			Kind:    flow.KindButton,
			Action:  action,
			Payload: callbacks.CallbackPayload(c),
		}
		return d.deliver(c, ev)
	}
}

func (d *Dispatcher) textHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ev := flow.Event{
			UserID: sender.ID,
			Kind:   flow.KindText,
			Text:   c.Text(),
		}
		return d.deliver(c, ev)
	}
}

// deliver runs the event through the dispatcher and sends every reply.
func (d *Dispatcher) deliver(c tele.Context, ev flow.Event) error {
	ctx := tghelpers.BuildContext(c)
	for _, reply := range d.Dispatch(ctx, ev) {
		text := reply.Text
		if text == "" {
			text = textMenuCaption
		}
		if markup := toMarkup(reply.Buttons); markup != nil {
			if err := tghelpers.SendText(c, text, markup); err != nil {
				return err
			}
			continue
		}
		if err := tghelpers.SendText(c, text); err != nil {
			return err
		}
	}
	return nil
}

func toMarkup(rows [][]flow.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	btns := make([][]keyboard.InlineBtn, len(rows))
	for i, row := range rows {
		r := make([]keyboard.InlineBtn, len(row))
		for j, b := range row {
			r[j] = keyboard.InlineBtn{Text: b.Label, Unique: b.Action, Data: b.Payload}
		}
		btns[i] = r
	}
	return keyboard.InlineButtonsRows(btns...)
}
