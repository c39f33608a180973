package models

import "time"

// QuestionLog stores questions captured by the chatbot webhook for an agent.
// Questions is a JSON array of {"question": "..."} objects.
type QuestionLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	AgentID   string    `gorm:"column:agent_id;not null;uniqueIndex:idx_question_logs_agent_id_unique"`
	Questions string    `gorm:"column:questions;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Sequence is a named counter advanced atomically by db.NextSequence.
type Sequence struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null"`
}

// All lists every model for SQLite auto-migration in dev and tests.
func All() []any {
	return []any{
		&User{},
		&Store{},
		&Menu{},
		&Public{},
		&PublicDepartment{},
		&PublicUser{},
		&Edit{},
		&PublicComplaint{},
		&QuestionLog{},
		&Sequence{},
	}
}
