// Package auth provides the authorization gate: a stateless predicate that
// decides whether a user may perform an operation.
package auth

import (
	"errors"
	"fmt"
)

// Operation classifies what a user is trying to do.
type Operation string

const (
	// OpView covers browsing restaurants and recommendations.
	OpView Operation = "view"
	// OpRate covers rating a restaurant.
	OpRate Operation = "rate"
	// OpMutate covers adding and deleting restaurants.
	OpMutate Operation = "mutate"
)

// Gate answers authorization checks against a static administrator set
// loaded once at startup.
type Gate struct {
	admins map[int64]struct{}
}

// NewGate builds a gate from the configured admin user ids.
func NewGate(adminIDs []int64) *Gate {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Gate{admins: admins}
}

// Allowed reports whether userID may perform op. Viewing and rating are open
// to everyone; registry mutation requires admin membership.
func (g *Gate) Allowed(userID int64, op Operation) bool {
	switch op {
	case OpView, OpRate:
		return true
	case OpMutate:
		return g.IsAdmin(userID)
	default:
		return false
	}
}

// IsAdmin reports whether userID belongs to the administrator set.
func (g *Gate) IsAdmin(userID int64) bool {
	_, ok := g.admins[userID]
	return ok
}

// AuthorizationError reports a privileged operation attempted by a user
// outside the administrator set.
type AuthorizationError struct {
	UserID int64
	Op     Operation
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not allowed to %s", e.UserID, e.Op)
}

// Code identifies the error class for structured logs.
func (e *AuthorizationError) Code() string { return "UNAUTHORIZED" }

// IsAuthorization reports whether err is an AuthorizationError.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}
