package models

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Project{},
		&Flow{},
		&Screen{},
		&ScreenComment{},
		&ScreenHotspot{},
	}
}
