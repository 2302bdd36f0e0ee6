// Package store persists users and result cards.
//
// Store is the interface the API depends on. Three backends implement it:
//
//	memory: mutex-guarded maps; used by tests and local runs
//	mongo:  MongoDB collections "users" and "resultcards"
//	sqlite: GORM over SQLite, subjects kept in a JSON column
//
// Open(ctx, cfg) picks the backend from config. Every backend validates
// records before writing them (ErrInvalid), assigns identities and creation
// times, and reports unknown or malformed identities as ErrNotFound.
// Results are listed newest first.
package store
