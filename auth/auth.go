// Package auth carries the user or role a command is executed as. The db layer forwards it to the
// cluster as the proxy execute payload.
package auth

import "context"

type contextKey struct {
	name string
}

var userOrRoleKey = &contextKey{"userOrRole"}

func WithContextUserOrRole(ctx context.Context, userOrRole string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userOrRoleKey, userOrRole)
}

// ContextUserOrRole returns the user or role stored in ctx, or an empty string
func ContextUserOrRole(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userOrRole, _ := ctx.Value(userOrRoleKey).(string)
	return userOrRole
}
