// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles as reported by Role.
const (
	RoleGuest = "guest"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Role returns guest, user or admin. Anonymous requests report guest with
// ok=false.
func Role(r *http.Request) (role string, ok bool) {
	u, ok := auth.CurrentUser(r)
	switch {
	case !ok:
		return RoleGuest, false
	case u.IsGuest:
		return RoleGuest, true
	case u.IsAdmin:
		return RoleAdmin, true
	default:
		return RoleUser, true
	}
}

// UserID returns the caller's ObjectID. ok is false for anonymous callers,
// guests, and malformed ids (fail closed).
func UserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.IsGuest {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// IsGuest reports whether the caller holds a guest token.
func IsGuest(r *http.Request) bool {
	u, ok := auth.CurrentUser(r)
	return ok && u.IsGuest
}

// IsAdmin reports whether the caller is an admin.
func IsAdmin(r *http.Request) bool {
	role, _ := Role(r)
	return role == RoleAdmin
}
