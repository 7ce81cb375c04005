package model

// All returns one value of every model, in dependency order, for schema
// creation with AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserProfile{},
		&Conversation{},
		&Message{},
		&MemoryItem{},
		&Tag{},
		&Resource{},
		&ResourceEvent{},
		&Report{},
		&GuestbookMessage{},
		&AdminAuditLog{},
		&VerificationCode{},
	}
}
