// Package memory houses the durable implementation of core.MemoryStore.
// Memories persist as one JSON document with the same temp-file-plus-rename
// write discipline the session store uses, guarded by a single mutex.
package memory
