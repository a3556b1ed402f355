package session

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/licomnaklavy/edu-platform/internal/domain"
	"github.com/licomnaklavy/edu-platform/internal/storage/local"
)

// memoryBackend is an in-memory Backend for tests
type memoryBackend struct {
	records map[string][]byte
	saveErr error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{records: make(map[string][]byte)}
}

func (m *memoryBackend) key(collection, id string) string {
	return collection + "/" + id
}

func (m *memoryBackend) Save(collection, id string, data any) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.records[m.key(collection, id)] = raw
	return nil
}

func (m *memoryBackend) Load(collection, id string, data any) error {
	raw, ok := m.records[m.key(collection, id)]
	if !ok {
		return ErrBackendNotFound
	}
	return json.Unmarshal(raw, data)
}

func (m *memoryBackend) Delete(collection, id string) error {
	k := m.key(collection, id)
	if _, ok := m.records[k]; !ok {
		return ErrBackendNotFound
	}
	delete(m.records, k)
	return nil
}

func testUser() *domain.User {
	return &domain.User{ID: 1, Email: "user@example.com", Name: "A"}
}

func TestStore_FreshStoreIsInvalid(t *testing.T) {
	s := NewStore(newMemoryBackend())

	if s.IsValid() {
		t.Error("IsValid() = true on a fresh store")
	}
	if _, ok := s.ReadToken(); ok {
		t.Error("ReadToken() reported a token on a fresh store")
	}
	if _, ok := s.ReadUser(); ok {
		t.Error("ReadUser() reported a user on a fresh store")
	}
}

func TestStore_WriteSessionMakesValid(t *testing.T) {
	s := NewStore(newMemoryBackend())

	if err := s.WriteSession("abc", testUser()); err != nil {
		t.Fatalf("WriteSession() error = %v", err)
	}

	if !s.IsValid() {
		t.Error("IsValid() = false after WriteSession")
	}

	token, ok := s.ReadToken()
	if !ok || token != "abc" {
		t.Errorf("ReadToken() = %q, %v; want %q, true", token, ok, "abc")
	}

	user, ok := s.ReadUser()
	if !ok {
		t.Fatal("ReadUser() reported no user after WriteSession")
	}
	if user.Name != "A" || user.Email != "user@example.com" || user.ID != 1 {
		t.Errorf("ReadUser() = %+v", user)
	}
}

func TestStore_WriteSessionRejectsEmpty(t *testing.T) {
	s := NewStore(newMemoryBackend())

	if err := s.WriteSession("", testUser()); err == nil {
		t.Error("WriteSession() accepted an empty token")
	}
	if err := s.WriteSession("abc", nil); err == nil {
		t.Error("WriteSession() accepted a nil user")
	}
	if s.IsValid() {
		t.Error("IsValid() = true after rejected writes")
	}
}

// Partial persisted state must never grant access, whichever record is
// missing.
func TestStore_PartialStateIsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		missing string
	}{
		{"missing flag", "logged_in"},
		{"missing token", "token"},
		{"missing user", "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMemoryBackend()
			s := NewStore(backend)

			if err := s.WriteSession("abc", testUser()); err != nil {
				t.Fatalf("WriteSession() error = %v", err)
			}

			if err := backend.Delete("session", tt.missing); err != nil {
				t.Fatalf("Delete(%s) error = %v", tt.missing, err)
			}

			if s.IsValid() {
				t.Errorf("IsValid() = true with %s", tt.name)
			}
		})
	}
}

func TestStore_FlagFalseIsInvalid(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStore(backend)

	if err := s.WriteSession("abc", testUser()); err != nil {
		t.Fatalf("WriteSession() error = %v", err)
	}

	// Token and user present, flag explicitly false.
	if err := backend.Save("session", "logged_in", false); err != nil {
		t.Fatalf("Save(flag) error = %v", err)
	}

	if s.IsValid() {
		t.Error("IsValid() = true with flag = false")
	}
}

func TestStore_UpdateUserKeepsTokenAndFlag(t *testing.T) {
	s := NewStore(newMemoryBackend())

	if err := s.WriteSession("abc", testUser()); err != nil {
		t.Fatalf("WriteSession() error = %v", err)
	}

	renamed := &domain.User{ID: 1, Email: "user@example.com", Name: "Renamed"}
	if err := s.UpdateUser(renamed); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	if !s.IsValid() {
		t.Error("IsValid() = false after UpdateUser")
	}

	token, _ := s.ReadToken()
	if token != "abc" {
		t.Errorf("ReadToken() = %q after UpdateUser, want %q", token, "abc")
	}

	user, _ := s.ReadUser()
	if user == nil || user.Name != "Renamed" {
		t.Errorf("ReadUser() = %+v, want name %q", user, "Renamed")
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	s := NewStore(newMemoryBackend())

	if err := s.WriteSession("abc", testUser()); err != nil {
		t.Fatalf("WriteSession() error = %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if s.IsValid() {
		t.Error("IsValid() = true after Clear")
	}
	if _, ok := s.ReadToken(); ok {
		t.Error("ReadToken() reported a token after Clear")
	}

	// A second clear of an already empty session must succeed too.
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
	if s.IsValid() {
		t.Error("IsValid() = true after double Clear")
	}
}

func TestStore_ClearOnFreshStore(t *testing.T) {
	s := NewStore(newMemoryBackend())

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() on fresh store error = %v", err)
	}
}

func TestStore_WriteSessionPropagatesBackendError(t *testing.T) {
	backend := newMemoryBackend()
	backend.saveErr = errors.New("disk full")
	s := NewStore(backend)

	if err := s.WriteSession("abc", testUser()); err == nil {
		t.Error("WriteSession() swallowed a backend error")
	}
	if s.IsValid() {
		t.Error("IsValid() = true after a failed write")
	}
}

// The file-backed store must satisfy Backend and survive a "page reload":
// a second store built over the same directory sees the same session.
func TestStore_FileBackendAcrossReload(t *testing.T) {
	dir := t.TempDir()

	backend, err := local.NewStore(dir)
	if err != nil {
		t.Fatalf("local.NewStore() error = %v", err)
	}

	first := NewStore(backend)
	if err := first.WriteSession("abc", testUser()); err != nil {
		t.Fatalf("WriteSession() error = %v", err)
	}

	reopened, err := local.NewStore(dir)
	if err != nil {
		t.Fatalf("local.NewStore() reopen error = %v", err)
	}
	second := NewStore(reopened)

	if !second.IsValid() {
		t.Error("IsValid() = false after reload")
	}
	user, ok := second.ReadUser()
	if !ok || user.Name != "A" {
		t.Errorf("ReadUser() after reload = %+v, %v", user, ok)
	}
}
