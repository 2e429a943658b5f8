package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_ZeroValueIsAbsent(t *testing.T) {
	var o Optional[string]
	v, ok := o.Get()
	assert.False(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, "fallback", o.OrElse("fallback"))
}

func TestOptional_Some(t *testing.T) {
	o := Some("Pernis apivorus")
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, "Pernis apivorus", v)
	assert.True(t, o.IsSet())
}

func TestNonZero(t *testing.T) {
	assert.False(t, NonZero("").IsSet())
	assert.False(t, NonZero(int64(0)).IsSet())
	assert.True(t, NonZero("x").IsSet())
	assert.True(t, NonZero(int64(2480830)).IsSet())
}

func TestOptional_Or(t *testing.T) {
	assert.Equal(t, "a", Some("a").Or(Some("b")).OrElse(""))
	assert.Equal(t, "b", None[string]().Or(Some("b")).OrElse(""))
	assert.False(t, None[string]().Or(None[string]()).IsSet())
}

func TestOptional_JSON(t *testing.T) {
	type record struct {
		Name Optional[string] `json:"name"`
		Key  Optional[int64]  `json:"key"`
	}

	data, err := json.Marshal(record{Name: Some("Pernis")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Pernis","key":null}`, string(data))

	var decoded record
	require.NoError(t, json.Unmarshal([]byte(`{"name":null,"key":42}`), &decoded))
	assert.False(t, decoded.Name.IsSet())
	assert.Equal(t, int64(42), decoded.Key.OrElse(0))
}

func TestOptional_EmptyMapIsStillPresent(t *testing.T) {
	o := Some(map[string]CrossReference{})
	assert.True(t, o.IsSet())

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
