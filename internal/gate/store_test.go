package gate

import (
	"testing"

	"github.com/mdental/practice-platform/internal/auth"
)

func TestStorageStore_RoundTrip(t *testing.T) {
	store := NewStorageStore(NewMemoryStorage())

	if got := store.Read(); got != nil {
		t.Fatalf("empty store read = %+v, want nil", got)
	}

	store.Write(&Session{UserID: "user_1", Name: "Dr. Ana", Email: "ana@clinic.mk", Role: auth.RoleStaff})
	got := store.Read()
	if got == nil || got.UserID != "user_1" || got.Role != auth.RoleStaff {
		t.Fatalf("read = %+v", got)
	}

	store.Clear()
	if got := store.Read(); got != nil {
		t.Fatalf("read after clear = %+v, want nil", got)
	}
}

func TestStorageStore_CorruptEntryIsPurged(t *testing.T) {
	storage := NewMemoryStorage()
	storage.Set("user", "{not json")
	store := NewStorageStore(storage)

	if got := store.Read(); got != nil {
		t.Fatalf("corrupt read = %+v, want nil", got)
	}
	if _, ok := storage.Get("user"); ok {
		t.Error("corrupt entry should have been removed")
	}
}

func TestStorageStore_MissingUserIDReadsAsAbsent(t *testing.T) {
	storage := NewMemoryStorage()
	storage.Set("user", `{"name": "ghost"}`)
	store := NewStorageStore(storage)

	if got := store.Read(); got != nil {
		t.Fatalf("read = %+v, want nil", got)
	}
	if _, ok := storage.Get("user"); ok {
		t.Error("entry without user_id should have been removed")
	}
}

func TestSessionValid(t *testing.T) {
	var nilSession *Session
	if nilSession.Valid() {
		t.Error("nil session must not be valid")
	}
	if (&Session{UserID: "u", Role: auth.Role("owner")}).Valid() {
		t.Error("unrecognized role must not be valid")
	}
	if !(&Session{UserID: "u", Role: auth.RoleAdmin}).Valid() {
		t.Error("admin session should be valid")
	}
	if !(&Session{UserID: "u", Role: auth.RoleStaff}).Valid() {
		t.Error("staff session should be valid")
	}
}
