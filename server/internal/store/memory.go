package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a thread-safe in-memory Store. Users are listed in insertion
// order; results newest first.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]*memUser
	results map[string]*memResult
	seq     uint64

	now   func() time.Time // injectable for deterministic tests
	newID func() string
}

type memUser struct {
	user User
	seq  uint64
}

type memResult struct {
	result Result
	seq    uint64
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]*memUser),
		results: make(map[string]*memResult),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (m *Memory) CreateUser(_ context.Context, in NewUser) (User, error) {
	if err := Validate(in); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	u := User{ID: m.newID(), Name: in.Name, Email: in.Email, Age: in.Age}
	m.users[u.ID] = &memUser{user: u, seq: m.seq}
	return u, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*memUser, 0, len(m.users))
	for _, e := range m.users {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]User, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.user)
	}
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, id string, p UserPatch) (User, error) {
	if err := Validate(p); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	p.apply(&e.user)
	return e.user, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateResult(_ context.Context, r Result) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := prepareResult(r, m.newID(), m.now())
	if err != nil {
		return Result{}, err
	}
	m.seq++
	m.results[stored.ID] = &memResult{result: stored, seq: m.seq}
	return copyResult(stored), nil
}

func (m *Memory) ListResults(_ context.Context) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*memResult, 0, len(m.results))
	for _, e := range m.results {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.result.CreatedAt.Equal(b.result.CreatedAt) {
			return a.result.CreatedAt.After(b.result.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]Result, 0, len(entries))
	for _, e := range entries {
		out = append(out, copyResult(e.result))
	}
	return out, nil
}

func (m *Memory) GetResult(_ context.Context, id string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.results[id]
	if !ok {
		return Result{}, ErrNotFound
	}
	return copyResult(e.result), nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op; the data lives until the process exits.
func (m *Memory) Close(context.Context) error { return nil }

// copyResult detaches the subjects slice so callers cannot mutate stored state.
func copyResult(r Result) Result {
	r.Subjects = append([]Subject(nil), r.Subjects...)
	return r
}
