package controllers

import (
	"net/http"

	"github.com/angelmondragon/bazaar-backend/api/middleware"
	pkgAuth "github.com/angelmondragon/bazaar-backend/pkg/auth"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
)

func requireActor(r *http.Request) (pkgAuth.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return pkgAuth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

// roleFromPath reads the {role} URL segment and checks it against allowed.
func roleFromPath(r *http.Request, allowed ...enums.Role) (enums.Role, error) {
	role, err := enums.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "unknown role")
	}
	for _, candidate := range allowed {
		if candidate == role {
			return role, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeNotFound, "unknown role")
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func chiParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
