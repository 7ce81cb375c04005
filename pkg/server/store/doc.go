// Package store provides storage abstractions for the assistant server.
//
// This package defines interfaces for database operations, allowing the
// server endpoints to be decoupled from the specific database implementation.
// Endpoint tests use testify mocks of these interfaces; the GORM
// implementations live in the gorm subpackage.
//
// # Available Stores
//
//   - UsersStore: accounts, admin listing and soft delete
//   - ProfilesStore: per-user display name and preferences
//   - VerificationCodesStore: email codes for registration and password reset
//   - ConversationsStore: conversations and their messages
//   - MemoryStore: long-term memory items
//   - ResourcesStore: curated resources, tags and interaction events
//   - ReportsStore: generated monthly and weekly reports
//   - GuestbookStore: nested guestbook messages and the reply inbox
//   - AuditLogsStore: admin audit log queries
//
// # Usage
//
//	users := gormstore.NewUsersStore(db)
//	user, err := users.GetUser(id)
//	if err != nil {
//	    if errors.Is(err, store.ErrUserNotFound) {
//	        // Handle not found
//	    }
//	}
//
// Soft-deleted rows are invisible to every lookup unless a method says
// otherwise.
package store
