package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks behave.
type AdminOptions struct {
	AdminIDs map[int64]struct{}
	OnReject tele.HandlerFunc
}

// NewAdminOptions builds AdminOptions from a list of administrator ids.
func NewAdminOptions(ids []int64, onReject tele.HandlerFunc) AdminOptions {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AdminOptions{AdminIDs: set, OnReject: onReject}
}

func (o AdminOptions) isAdmin(userID int64) bool {
	_, ok := o.AdminIDs[userID]
	return ok
}

// AdminOnlyMiddleware ensures that only configured administrators can invoke
// downstream handlers. An empty admin set rejects everyone.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || !opts.isAdmin(user.ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
