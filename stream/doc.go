// Package stream frames incremental chat output for delivery to a consumer.
// Two wire framings are supported: newline-delimited JSON, one event object
// per line, and server-sent-event frames. Both write through any io.Writer
// and flush after every event when the writer supports it.
package stream
