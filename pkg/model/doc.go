// Package model defines the database models for the ACGN assistant.
//
// Every model uses a UUID primary key that is assigned in a BeforeCreate
// hook, so rows can be created on both PostgreSQL and SQLite without relying
// on database side generators. Mutable entities carry a gorm.DeletedAt column;
// GORM scopes queries to live rows automatically and Unscoped() reaches
// soft-deleted ones.
//
// # Core Models
//
//   - User, UserProfile: accounts and their preferences
//   - Conversation, Message: chat history
//   - MemoryItem: long-term user memory
//   - Resource, Tag, ResourceEvent: recommendable resources and feedback
//   - Report: generated monthly and weekly report text
//   - GuestbookMessage: threaded guestbook
//   - AdminAuditLog: admin action trail
//   - VerificationCode: hashed email verification codes
//
// # Database Schema
//
//   - users, user_profiles
//   - conversations, messages
//   - memory_items
//   - resources, tags, resource_tags, resource_events
//   - reports
//   - guestbook_messages
//   - admin_audit_logs
//   - verification_codes
package model
