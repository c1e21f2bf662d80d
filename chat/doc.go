// Package chat implements the single-agent conversation path: one user
// turn in, one agent completion out, with the session transcript persisted
// after the completion lands. Both a buffered and an incremental delivery
// mode share the same setup and persistence rules.
package chat
