// Package repository defines the persistence contracts the authorization
// server core depends on.
//
// The core never talks to a database driver directly: every grant handler
// operates against these interfaces, supplied by an adapter under
// internal/store. Secret-bearing columns always hold hashes, never
// plaintext.
package repository
