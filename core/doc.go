// Package core provides the foundational domain types shared by the chatbox
// components. It defines:
//
//   - Messages (role + text or multimodal content) and their wire format
//   - Sessions (persistent conversation / discussion transcripts)
//   - Memories (durable user notes injected into model context by rank)
//   - File artifacts (processed upload content handed in by the edge layer)
//   - Store contracts for sessions and memories
//
// The package intentionally keeps implementation concerns (persistence, model
// invocation, orchestration) out of scope, exposing small interfaces so the
// storage and transport layers can be swapped without touching callers.
package core
