package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	body := []byte(`{"text": "hello world"}`)
	v, ok := ExtractText(body, "")
	require.True(t, ok)
	assert.Equal(t, "hello world", v)
	v, ok = ExtractText(body, "text")
	require.True(t, ok)
	assert.Equal(t, "hello world", v)

	nested := []byte(`{"results": [{"alternatives": [{"transcript": "ok"}]}]}`)
	v, ok = ExtractText(nested, "results[0].alternatives[0].transcript")
	require.True(t, ok)
	assert.Equal(t, "ok", v)

	// bad path falls back to the conventional field
	both := []byte(`{"text": "fallback", "data": {}}`)
	v, ok = ExtractText(both, "data.missing")
	require.True(t, ok)
	assert.Equal(t, "fallback", v)

	_, ok = ExtractText([]byte("not json"), "text")
	assert.False(t, ok)
	_, ok = ExtractText([]byte(`{"count": {}}`), "")
	assert.False(t, ok)
}

func TestExtractTextEmptyTranscriptIsFound(t *testing.T) {
	// a present-but-empty text field means "no speech", not "no field"
	v, ok := ExtractText([]byte(`{"text": ""}`), "text")
	require.True(t, ok)
	assert.Empty(t, v)

	v, ok = ExtractText([]byte(`{"text": ""}`), "")
	require.True(t, ok)
	assert.Empty(t, v)
}

func TestExtractByPath(t *testing.T) {
	root := map[string]interface{}{
		"data": map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"value": "a"},
				map[string]interface{}{"value": "b"},
			},
		},
		"n": float64(42),
	}

	v, ok := ExtractByPath(root, "data.items[1].value")
	require.True(t, ok)
	assert.Equal(t, "b", v)

	v, ok = ExtractByPath(root, "n")
	require.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok = ExtractByPath(root, "data.items[99].value")
	assert.False(t, ok)
	_, ok = ExtractByPath(root, "data.items[x].value")
	assert.False(t, ok)
}

func TestParseToken(t *testing.T) {
	key, idxs, err := parseToken("foo[0][1]")
	require.NoError(t, err)
	assert.Equal(t, "foo", key)
	assert.Equal(t, []int{0, 1}, idxs)

	_, _, err = parseToken("foo[")
	assert.Error(t, err)
	_, _, err = parseToken("foo[]")
	assert.Error(t, err)
}
