// Package reembed rewrites the vectors of every stored chunk with a new or
// updated embedding model.
//
// The package supports batch processing of chunk records, progress tracking,
// and retry logic with exponential backoff. Run it while the query service
// is offline: until the pass completes, vectors of the old and the new model
// coexist in the index.
package reembed
