package router

import (
	"time"

	tg "github.com/m3rciful/restobot/core/telegram"
	"github.com/m3rciful/restobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextRoute funnels free-text messages into the conversation handler. Slash
// commands registered in the registry never reach it; telebot routes those to
// their own endpoints first.
func TextRoute(handler tele.HandlerFunc) tg.Route {
	wrapped := func(c tele.Context) error {
		return handleWithSummary(c, "conversation", time.Now(), func() error {
			return handler(c)
		})
	}
	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(wrapped)),
	}
}
