// Package drive provides an in-memory implementation of the drive
// repositories. It backs the service tests and the STORAGE_BACKEND=memory
// development mode; postgres is the production backend.
package drive

import (
	"context"
	"sync"

	models "drivehub/internal/domain/models/drive"
	"drivehub/internal/domain/repositories"
)

// Store holds the complete drive state in interconnected maps:
//   - objects: object id -> FsObject (the shared graph)
//   - states: state id -> State (the per-user overlay)
//   - stateKeys: (fs object id, user id) -> state id, the unique key that
//     gives Create its upsert semantics
//   - quotas: user id -> Quota
//
// All operations are protected by a single read-write mutex, making the
// store safe for concurrent use. Transactions serialize on a second mutex
// and roll back by restoring a snapshot, so a failed multi-step operation
// never leaves partial writes behind.
type Store struct {
	mu        sync.RWMutex
	objects   map[string]*models.FsObject
	states    map[string]*models.State
	stateKeys map[stateKey]string
	quotas    map[string]*models.Quota

	txMu sync.Mutex
}

type stateKey struct {
	fsObjectID string
	userID     string
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		objects:   make(map[string]*models.FsObject),
		states:    make(map[string]*models.State),
		stateKeys: make(map[stateKey]string),
		quotas:    make(map[string]*models.Quota),
	}
}

func copyObject(obj *models.FsObject) *models.FsObject {
	dup := *obj
	if obj.ParentID != nil {
		parent := *obj.ParentID
		dup.ParentID = &parent
	}
	if obj.File != nil {
		file := *obj.File
		dup.File = &file
	}
	if obj.Shortcut != nil {
		shortcut := *obj.Shortcut
		dup.Shortcut = &shortcut
	}
	return &dup
}

func copyState(st *models.State) *models.State {
	dup := *st
	return &dup
}

func copyQuota(q *models.Quota) *models.Quota {
	dup := *q
	return &dup
}

type snapshot struct {
	objects   map[string]*models.FsObject
	states    map[string]*models.State
	stateKeys map[stateKey]string
	quotas    map[string]*models.Quota
}

func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot{
		objects:   make(map[string]*models.FsObject, len(s.objects)),
		states:    make(map[string]*models.State, len(s.states)),
		stateKeys: make(map[stateKey]string, len(s.stateKeys)),
		quotas:    make(map[string]*models.Quota, len(s.quotas)),
	}
	for id, obj := range s.objects {
		snap.objects[id] = copyObject(obj)
	}
	for id, st := range s.states {
		snap.states[id] = copyState(st)
	}
	for key, id := range s.stateKeys {
		snap.stateKeys[key] = id
	}
	for userID, q := range s.quotas {
		snap.quotas[userID] = copyQuota(q)
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects = snap.objects
	s.states = snap.states
	s.stateKeys = snap.stateKeys
	s.quotas = snap.quotas
}

// TransactionManager implements repositories.TransactionManager for the
// in-memory store. Transactions serialize (one writer at a time) and abort
// by restoring the pre-transaction snapshot.
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a transaction manager over the store
func NewTransactionManager(store *Store) repositories.TransactionManager {
	return &TransactionManager{store: store}
}

// ExecTx executes fn atomically against the store
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	snap := tm.store.snapshot()
	if err := fn(ctx); err != nil {
		tm.store.restore(snap)
		return err
	}
	return nil
}
