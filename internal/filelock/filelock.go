// Package filelock provides advisory file locking for the local blob store.
//
// Locks are cooperative: they only guard against other imagevault processes
// on the same machine, which is the deployment model the local store
// targets. On platforms without flock support, Lock degrades to a no-op.
package filelock

// Lock acquires an exclusive advisory lock on the file at path, creating
// it if necessary. It blocks until the lock is available and returns a
// release function.
func Lock(path string) (func() error, error) {
	return lock(path)
}
