//go:build !unix

package filelock

// No flock on this platform; the in-process mutex held by each store is
// the only write serialization.
func lock(string) (func() error, error) {
	return func() error { return nil }, nil
}
