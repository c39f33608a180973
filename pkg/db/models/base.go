package models

import "github.com/google/uuid"

// ensureID assigns a random UUID when the caller left the key empty. Postgres
// also defaults ids, the hook keeps SQLite-backed runs consistent.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
