package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(newTestStore(t), zap.NewNop())
	require.NoError(t, err)
	return r
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected change notification")
	}
}

func TestRegistryAddNotifiesAndPersists(t *testing.T) {
	r := newTestRegistry(t)
	ch := r.Subscribe()

	p := testProfile("x", "custom", "F8")
	require.NoError(t, r.Add(p))
	waitSignal(t, ch)

	// a fresh registry over the same store sees the mutation
	r2, err := NewRegistry(r.store, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, r2.ByID("x"))
}

func TestRegistryRejectsConflictWithoutNotify(t *testing.T) {
	r := newTestRegistry(t)
	ch := r.Subscribe()

	dup := testProfile("x", "dup", "F2") // F2 is owned by default-auto
	err := r.Add(dup)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))

	select {
	case <-ch:
		t.Fatal("rejected mutation must not notify")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistrySetEnabledConflict(t *testing.T) {
	r := newTestRegistry(t)

	// default-auto-zh shares no hotkey, enabling is fine
	require.NoError(t, r.SetEnabled("default-auto-zh", true))

	// move it onto F2 while disabled, then try to enable
	p := r.ByID("default-auto-zh")
	p.IsEnabled = false
	require.NoError(t, r.Update(p))
	p = r.ByID("default-auto-zh")
	p.Hotkey = "F2"
	require.NoError(t, r.Update(p))

	err := r.SetEnabled("default-auto-zh", true)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
}

func TestRegistrySnapshotsAreCopies(t *testing.T) {
	r := newTestRegistry(t)

	p := r.ByID("default-auto")
	p.Name = "mutated"
	assert.Equal(t, "自动语音转写", r.ByID("default-auto").Name)
}

func TestRegistryUnsubscribe(t *testing.T) {
	r := newTestRegistry(t)
	ch := r.Subscribe()
	r.Unsubscribe(ch)

	require.NoError(t, r.SetActive("default-auto"))
	select {
	case <-ch:
		t.Fatal("unsubscribed channel must not receive")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistryFailedSaveKeepsMemoryConsistent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	store := NewStore(dir, zap.NewNop())
	r, err := NewRegistry(store, zap.NewNop())
	require.NoError(t, err)
	ch := r.Subscribe()

	// break persistence: the store root becomes a plain file
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, nil, 0644))

	err = r.Add(testProfile("x", "custom", "F9"))
	require.Error(t, err)
	assert.Nil(t, r.ByID("x"), "a mutation the store rejected must not survive in memory")

	select {
	case <-ch:
		t.Fatal("failed mutation must not notify")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistryRestoreDefaults(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Add(testProfile("x", "custom", "F9")))
	require.NoError(t, r.RestoreDefaults())
	assert.Nil(t, r.ByID("x"))
	assert.Len(t, r.All(), 4)
}
