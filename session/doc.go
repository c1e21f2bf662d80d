// Package session houses the durable implementation of core.SessionStore.
// The whole session collection persists as one JSON document written with a
// temp-file-plus-rename discipline, fronted by a TTL cache and serialized by
// a single mutex. A corrupt document is quarantined under a timestamped
// backup name rather than blocking the service.
package session
