package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// DB interface for database operations
type DB interface {
	Init() error
	// User operations
	CreateUser(ctx context.Context, publicID, name, passwordHash string, admin bool) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	GetUserByPublicID(ctx context.Context, publicID string) (*User, error)
	GetUserByName(ctx context.Context, name string) (*User, error)
	UpdateUserName(ctx context.Context, publicID, name string) error
	PromoteUser(ctx context.Context, publicID string) error
	DeleteUser(ctx context.Context, publicID string) error
	// Pet operations; every lookup is scoped to ownerID
	CreatePet(ctx context.Context, name string, ownerID int64) (*Pet, error)
	ListPetsByOwner(ctx context.Context, ownerID int64) ([]*Pet, error)
	GetPet(ctx context.Context, id, ownerID int64) (*Pet, error)
	UpdatePetName(ctx context.Context, id, ownerID int64, name string) error
	DeletePet(ctx context.Context, id, ownerID int64) error
}

// Memory DB
type MemDB struct {
	mu      sync.RWMutex
	users   map[int64]*User
	pets    map[int64]*Pet
	userSeq int64
	petSeq  int64
}

func NewMemoryDB() *MemDB {
	return &MemDB{users: map[int64]*User{}, pets: map[int64]*Pet{}}
}

func (m *MemDB) Init() error { return nil }

// nameTaken reports whether a user other than exceptID already holds name.
// Empty names never collide. Caller holds the lock.
func (m *MemDB) nameTaken(name string, exceptID int64) bool {
	if name == "" {
		return false
	}
	for _, u := range m.users {
		if u.ID != exceptID && u.Name == name {
			return true
		}
	}
	return false
}

func (m *MemDB) userByPublicID(publicID string) *User {
	for _, u := range m.users {
		if u.PublicID == publicID {
			return u
		}
	}
	return nil
}

func (m *MemDB) CreateUser(_ context.Context, publicID, name, passwordHash string, admin bool) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(name, 0) || m.userByPublicID(publicID) != nil {
		return nil, fmt.Errorf("create user %q: %w", name, ErrConflict)
	}
	m.userSeq++
	u := &User{ID: m.userSeq, PublicID: publicID, Name: name, Password: passwordHash, Admin: admin}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *MemDB) ListUsers(_ context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemDB) GetUserByPublicID(_ context.Context, publicID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u := m.userByPublicID(publicID)
	if u == nil {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemDB) GetUserByName(_ context.Context, name string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *User
	for _, u := range m.users {
		if u.Name == name && (found == nil || u.ID < found.ID) {
			found = u
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *MemDB) UpdateUserName(_ context.Context, publicID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.userByPublicID(publicID)
	if u == nil {
		return ErrNotFound
	}
	if m.nameTaken(name, u.ID) {
		return fmt.Errorf("rename user %s: %w", publicID, ErrConflict)
	}
	u.Name = name
	return nil
}

func (m *MemDB) PromoteUser(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.userByPublicID(publicID)
	if u == nil {
		return ErrNotFound
	}
	u.Admin = true
	return nil
}

func (m *MemDB) DeleteUser(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.userByPublicID(publicID)
	if u == nil {
		return ErrNotFound
	}
	for id, p := range m.pets {
		if p.OwnerID == u.ID {
			delete(m.pets, id)
		}
	}
	delete(m.users, u.ID)
	return nil
}

func (m *MemDB) CreatePet(_ context.Context, name string, ownerID int64) (*Pet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[ownerID]; !ok {
		return nil, fmt.Errorf("create pet for owner %d: %w", ownerID, ErrNotFound)
	}
	m.petSeq++
	p := &Pet{ID: m.petSeq, Name: name, OwnerID: ownerID}
	m.pets[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *MemDB) ListPetsByOwner(_ context.Context, ownerID int64) ([]*Pet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Pet{}
	for _, p := range m.pets {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ownedPet returns the pet only when ownerID owns it. Caller holds the lock.
func (m *MemDB) ownedPet(id, ownerID int64) *Pet {
	p, ok := m.pets[id]
	if !ok || p.OwnerID != ownerID {
		return nil
	}
	return p
}

func (m *MemDB) GetPet(_ context.Context, id, ownerID int64) (*Pet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.ownedPet(id, ownerID)
	if p == nil {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemDB) UpdatePetName(_ context.Context, id, ownerID int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.ownedPet(id, ownerID)
	if p == nil {
		return ErrNotFound
	}
	p.Name = name
	return nil
}

func (m *MemDB) DeletePet(_ context.Context, id, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ownedPet(id, ownerID) == nil {
		return ErrNotFound
	}
	delete(m.pets, id)
	return nil
}

// lifecycle helpers
func (m *MemDB) close() error { return nil }
func (m *MemDB) ping() bool   { return true }
