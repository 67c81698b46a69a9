package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseKey(t *testing.T) {
	cases := []struct {
		spec      string
		vk        uint32
		truncated bool
	}{
		{"F2", 0x71, false},
		{"f12", 0x7B, false},
		{"q", 'Q', false},
		{"7", '7', false},
		{"esc", 0x1B, false},
		{"space", 0x20, false},
		{"enter", 0x0D, false},
		{"numpad5", 0x65, false},
		{"kp0", 0x60, false},
		{"alt+q", 'Q', true},
		{"ctrl+shift+F1", 0x70, true},
		{"CTRL + Q", 'Q', true},
	}
	for _, tc := range cases {
		vk, truncated, err := ParseKey(tc.spec)
		require.NoError(t, err, tc.spec)
		assert.Equal(t, tc.vk, vk, tc.spec)
		assert.Equal(t, tc.truncated, truncated, tc.spec)
	}

	for _, bad := range []string{"", "  ", "f99", "hyperkey"} {
		_, _, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestKeymapReplaceSkipsConflicts(t *testing.T) {
	k := NewKeymap(zap.NewNop())
	n := k.Replace([]Binding{
		{ProfileID: "a", Spec: "F2"},
		{ProfileID: "b", Spec: "F2"},  // duplicate key, first wins
		{ProfileID: "c", Spec: "???"}, // unparseable
		{ProfileID: "d", Spec: "F3"},
	})
	assert.Equal(t, 2, n)

	id, ok := k.Press(0x71)
	require.True(t, ok)
	assert.Equal(t, "a", id)
}

func TestKeymapPressReleasePairing(t *testing.T) {
	k := NewKeymap(zap.NewNop())
	k.Replace([]Binding{{ProfileID: "a", Spec: "F2"}})

	// release without press is a no-op
	_, ok := k.Release(0x71)
	assert.False(t, ok)

	id, ok := k.Press(0x71)
	require.True(t, ok)
	assert.Equal(t, "a", id)
	assert.True(t, k.Held(0x71))

	// auto-repeat keydown while held is ignored
	_, ok = k.Press(0x71)
	assert.False(t, ok)

	id, ok = k.Release(0x71)
	require.True(t, ok)
	assert.Equal(t, "a", id)
	assert.False(t, k.Held(0x71))

	// second release does nothing
	_, ok = k.Release(0x71)
	assert.False(t, ok)
}

func TestKeymapUnboundKey(t *testing.T) {
	k := NewKeymap(zap.NewNop())
	k.Replace([]Binding{{ProfileID: "a", Spec: "F2"}})

	_, ok := k.Press(0x72)
	assert.False(t, ok)
}

func TestKeymapReplaceKeepsHeldState(t *testing.T) {
	k := NewKeymap(zap.NewNop())
	k.Replace([]Binding{{ProfileID: "a", Spec: "F2"}})

	_, ok := k.Press(0x71)
	require.True(t, ok)

	// reload with the same binding mid-press
	k.Replace([]Binding{{ProfileID: "a", Spec: "F2"}})
	id, ok := k.Release(0x71)
	require.True(t, ok)
	assert.Equal(t, "a", id)

	// reload that removes the binding swallows the pending release
	_, ok = k.Press(0x71)
	require.True(t, ok)
	k.Replace(nil)
	_, ok = k.Release(0x71)
	assert.False(t, ok)
}
