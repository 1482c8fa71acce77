package stytch

import "context"

// UsersClient exposes read access to the authenticated user.
type UsersClient struct {
	router *Router
}

// Me fetches the user attached to the active session. The cached user is
// refreshed from the response, including biometric-registration cleanup.
func (c *UsersClient) Me(ctx context.Context) (User, error) {
	user, err := Get[User](ctx, c.router, UsersRouteMe)
	if err != nil {
		return User{}, err
	}
	c.router.state.Users.Update(user)
	return user, nil
}
