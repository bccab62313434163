package fakesessionrepo

import (
	"sync"

	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory sessions.Repo. Setting FailReads or
// FailWrites makes the corresponding operations return an error.
type FakeSessionRepo struct {
	values  map[string][]byte
	lock    sync.RWMutex
	Deletes int
	Puts    int

	FailReads  bool
	FailWrites bool
}

var ErrStorageUnavailable = errors.New("storage unavailable")

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		values: make(map[string][]byte),
	}
}

func (r *FakeSessionRepo) Get(key string) ([]byte, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.FailReads {
		return nil, ErrStorageUnavailable
	}
	v, ok := r.values[key]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *FakeSessionRepo) Put(key string, value []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.Puts++
	if r.FailWrites {
		return ErrStorageUnavailable
	}
	r.values[key] = append([]byte(nil), value...)
	return nil
}

func (r *FakeSessionRepo) Delete(key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.Deletes++
	if r.FailWrites {
		return ErrStorageUnavailable
	}
	delete(r.values, key)
	return nil
}

// Raw returns the stored bytes for key, bypassing failure injection.
func (r *FakeSessionRepo) Raw(key string) ([]byte, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Seed stores value under key directly.
func (r *FakeSessionRepo) Seed(key string, value []byte) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.values[key] = value
}
