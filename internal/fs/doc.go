// Package fs abstracts the file system operations behind snapshot
// persistence so tests can substitute failing implementations.
//
// [LocalFS] is the production implementation over the os package and is
// installed as [Default]. [FaultyFS] wraps another FileSystem and injects
// write, sync or close failures by file name pattern.
//
// The interfaces carry no context.Context: local file operations are not
// interruptible at the syscall level. Remote storage with real
// cancellation goes through the blobstore package instead.
package fs
