// Package snapshot persists immutable, timestamped copies of an executed
// project document. Merging outputs never mutates the source document; every
// save produces both a "latest" file (overwritten in place) and a uniquely
// timestamped file under a snapshots directory next to the source file.
package snapshot
