// Package history persists the daemon's observations in SQLite. It keeps
// two logs: wireless scan observations and change-feed events, both tagged
// with the daemon run that produced them, and prunes them by age.
package history
