package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command describes a slash command: its handler plus the metadata used for
// the Telegram command menu and access control.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
}
