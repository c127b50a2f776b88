// Package s3 provides Amazon S3 implementations of the blobstore.Store
// interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(s3sdk.NewFromConfig(cfg), "my-bucket", "snapshots/")
//
//	err = container.SaveToStore(ctx, store, "orders.dvw")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads with CRC32C checksums for large snapshots
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//
// ExpressStore targets S3 Express One Zone directory buckets and adds
// conditional writes. DDBCommitStore layers a DynamoDB commit log on top of
// a Store so concurrent writers can publish snapshots atomically.
package s3
