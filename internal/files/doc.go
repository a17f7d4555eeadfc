// Package files locates and reads source workbooks and creates report files.
//
// Discovery walks local directory trees; S3Source pages through objects
// under an s3://bucket/prefix root. Router picks one of the two per root so
// the ingestion pipeline sees a single Source.
//
// Example usage:
//
//	src := &files.Router{
//	    Local: files.NewDiscovery(paths.BaseDir, logger),
//	    S3:    files.NewS3Source(s3Client),
//	}
//	entries, err := src.List(ctx, "s3://trial-exports/study-101")
//
// Manager creates output files relative to the configured reports directory.
package files
