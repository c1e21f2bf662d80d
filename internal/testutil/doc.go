// Package testutil provides shared test doubles: a scripted model provider
// standing in for remote endpoints, and small builders for sessions.
package testutil
