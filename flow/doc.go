// Package flow assembles the ordered message sequence sent to a model for a
// single invocation: role instructions, the ranked long-term-memory digest,
// the trailing conversation history window, and the current turn with any
// processed file artifacts. The builder is pure: given the same inputs it
// produces the same sequence and never mutates the session.
package flow
