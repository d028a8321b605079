package enumcodec_test

import (
	"testing"

	"telemed/pkg/enumcodec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fruit int

const (
	apple fruit = iota
	bitterMelon
	unknownFruit
)

func fruitCodec() *enumcodec.Codec[fruit] {
	return enumcodec.New([]enumcodec.Member[fruit]{
		{Value: apple, Name: "Apple"},
		{Value: bitterMelon, Name: "BitterMelon"},
		{Value: unknownFruit, Name: "Unknown"},
	})
}

// tide declares its Unknown member as an alias of a real value.
type tide int

const (
	ebb tide = iota
	flow
	unknownTide = ebb
)

func tideCodec() *enumcodec.Codec[tide] {
	return enumcodec.New([]enumcodec.Member[tide]{
		{Value: ebb, Name: "Ebb"},
		{Value: flow, Name: "Flow"},
		{Value: unknownTide, Name: "Unknown"},
	})
}

func TestLowerCamel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Waiting", "waiting"},
		{"OnCall", "onCall"},
		{"WaitingAgain", "waitingAgain"},
		{"InActive", "inActive"},
		{"HN", "hn"},
		{"already", "already"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, enumcodec.LowerCamel(tt.in), "input %q", tt.in)
	}
}

func TestRoundTrip(t *testing.T) {
	c := fruitCodec()
	for _, v := range []fruit{apple, bitterMelon} {
		name, err := c.Encode(v)
		require.NoError(t, err)
		got, err := c.Decode(name)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestEncodeFallback(t *testing.T) {
	c := fruitCodec()

	name, err := c.Encode(unknownFruit)
	require.NoError(t, err)
	assert.Equal(t, "unknown", name)

	// Values outside the declared set also encode to the fallback.
	name, err = c.Encode(fruit(42))
	require.NoError(t, err)
	assert.Equal(t, "unknown", name)
}

func TestEncodeFallbackAlias(t *testing.T) {
	c := tideCodec()

	// Unknown aliases Ebb, so the fallback encodes to the alias's name.
	name, err := c.Encode(unknownTide)
	require.NoError(t, err)
	assert.Equal(t, "ebb", name)

	name, err = c.Encode(tide(42))
	require.NoError(t, err)
	assert.Equal(t, "ebb", name)

	got, err := c.Decode("ebb")
	require.NoError(t, err)
	assert.Equal(t, unknownTide, got)
}

func TestEncodeWithoutFallback(t *testing.T) {
	c := enumcodec.New([]enumcodec.Member[fruit]{
		{Value: apple, Name: "Apple"},
	})
	_, err := c.Encode(fruit(42))
	assert.ErrorIs(t, err, enumcodec.ErrUnmappedValue)
}

func TestDecodeStrict(t *testing.T) {
	c := fruitCodec()
	_, err := c.Decode("bogus")
	assert.ErrorIs(t, err, enumcodec.ErrUnknownName)

	// The fallback name only exists on the encode side.
	_, err = c.Decode("unknown")
	assert.ErrorIs(t, err, enumcodec.ErrUnknownName)
}

func TestTryDecode(t *testing.T) {
	c := fruitCodec()

	_, ok := c.TryDecode("", true)
	assert.False(t, ok)

	got, ok := c.TryDecode("bogus", true)
	assert.True(t, ok)
	assert.Equal(t, unknownFruit, got)

	_, ok = c.TryDecode("bogus", false)
	assert.False(t, ok)

	got, ok = c.TryDecode("apple", false)
	assert.True(t, ok)
	assert.Equal(t, apple, got)
}

func TestFallback(t *testing.T) {
	v, ok := fruitCodec().Fallback()
	assert.True(t, ok)
	assert.Equal(t, unknownFruit, v)

	_, ok = enumcodec.New([]enumcodec.Member[fruit]{{Value: apple, Name: "Apple"}}).Fallback()
	assert.False(t, ok)
}
