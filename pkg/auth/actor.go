package auth

import "github.com/angelmondragon/bazaar-backend/pkg/enums"

// Actor is the authenticated principal a request runs as.
type Actor struct {
	PrincipalID uint
	Role        enums.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

// Owns reports whether the actor is the principal with id and role, or an admin.
func (a Actor) Owns(role enums.Role, id uint) bool {
	return a.IsAdmin() || (a.Role == role && a.PrincipalID == id)
}

// ActorFromClaims extracts the actor carried by a verified session token.
func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{PrincipalID: claims.PrincipalID, Role: claims.Role}
}
