package sessions

// Repo is the durable key-value storage behind the Store.
type Repo interface {
	// Get returns the value stored under key, or errors.ErrNotFound
	Get(key string) ([]byte, error)

	// Put stores value under key, replacing any previous value
	Put(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error
	Delete(key string) error
}
