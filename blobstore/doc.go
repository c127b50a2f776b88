// Package blobstore provides storage abstraction for container snapshots.
//
// Store is the interface for reading and writing named data blobs (snapshots,
// exports). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with mmap reads
//   - MemoryStore: In-memory store for tests
//   - CachingStore: Read-through block caching around any Store
//   - minio.Store: MinIO and S3-compatible object storage
//   - s3.Store: Amazon S3 with range reads and parallel uploads
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Create for writing
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// For cloud backends, Blob.ReadRange should issue a single ranged request so
// that snapshot loads do not fetch the whole object per read.
package blobstore
