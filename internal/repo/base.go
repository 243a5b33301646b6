package repo

import (
	"context"

	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Base is embedded by domain repositories. It binds the context on every query
// and hosts the offset pagination shared by listings.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx, or the raw connection when ctx is nil.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Paginate counts the rows matched by query and loads the requested page into dest.
// query must already carry its Model and filters; ordering is applied by the caller.
// findScopes (preloads and the like) only apply to the page query, never the count.
func Paginate(query *gorm.DB, params pagination.Params, dest any, findScopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	n := params.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	if err := query.Session(&gorm.Session{}).Scopes(findScopes...).Offset(n.Offset()).Limit(n.Limit).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
