package models

// All lists every persisted model; used by sqlite auto-migration.
func All() []any {
	return []any{
		&Principal{},
		&Category{},
		&Product{},
		&ProductImage{},
		&Order{},
		&Like{},
	}
}
