package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/projectlearn/vocaquiz/internal/domain"
)

// UI routes pushed to clients when the authentication state flips.
const (
	routeLogin = "/auth/login"
	routeHome  = "/home"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	AuthState struct {
		Authenticated bool                `json:"authenticated"`
		Route         string              `json:"route"`
		User          *domain.UserProfile `json:"user,omitempty"`
	}
)

// PublishAuthChanged pushes a navigation notification so connected UI clients
// can route to the login screen or home. Navigation is never driven by a
// direct call from the account service.
func (a *API) PublishAuthChanged(ctx context.Context, e domain.EventAuthChanged) error {
	route := routeLogin
	if e.Authenticated {
		route = routeHome
	}

	n := Notification{
		Event: e.Name(),
		Data: AuthState{
			Authenticated: e.Authenticated,
			Route:         route,
			User:          e.User,
		},
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", e.Name(), err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:navigation", a.prefix), b).Err()
}
