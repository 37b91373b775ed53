package kvo

import (
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestObject creates an object that stays reachable until the test ends,
// so the garbage collector cannot invalidate it mid-test.
func newTestObject(t *testing.T, class string) *Object {
	t.Helper()
	o := NewObject(class)
	t.Cleanup(func() { runtime.KeepAlive(o) })
	return o
}

// recorder collects changes delivered to an observer.
type recorder struct {
	changes []Change
}

func (r *recorder) handle(c Change) { r.changes = append(r.changes, c) }

func newPlayer(t *testing.T) *Object {
	t.Helper()
	p := newTestObject(t, "Player")
	require.NoError(t, p.Declare(AttributeMetadata{Key: "volume", Type: DataTypeInt64, Default: int64(0), MinValue: 0, MaxValue: 100}))
	require.NoError(t, p.Declare(AttributeMetadata{Key: "title", Type: DataTypeString, Nullable: true}))
	return p
}

func newObserver(t *testing.T) (*Object, *recorder) {
	t.Helper()
	o := newTestObject(t, "Controller")
	r := &recorder{}
	o.HandleChanges(r.handle)
	return o, r
}

func TestObjectBasics(t *testing.T) {
	p := newPlayer(t)

	assert.Equal(t, "Player", p.Class())
	assert.True(t, p.IsValid())
	assert.Equal(t, []string{"title", "volume"}, p.Keys())
	assert.Contains(t, p.String(), "Player(")

	v, err := p.Value("volume")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestObjectDeclareRejectsBadKeys(t *testing.T) {
	o := newTestObject(t, "Thing")

	assert.ErrorIs(t, o.Declare(AttributeMetadata{Key: ""}), ErrInvalidAttributeKey)
	assert.ErrorIs(t, o.Declare(AttributeMetadata{Key: "a.b"}), ErrInvalidAttributeKey)
}

func TestObjectSetValueValidation(t *testing.T) {
	p := newPlayer(t)

	assert.ErrorIs(t, p.SetValue("volume", "loud"), ErrAttributeValueType)
	assert.ErrorIs(t, p.SetValue("volume", int64(101)), ErrAttributeOutOfRange)
	assert.ErrorIs(t, p.SetValue("volume", nil), ErrAttributeNotNullable)
	assert.ErrorIs(t, p.SetValue("missing", 1), ErrUnknownKeyPath)
	assert.NoError(t, p.SetValue("title", nil))
	assert.NoError(t, p.SetValue("volume", int64(42)))

	v, _ := p.Value("volume")
	assert.Equal(t, int64(42), v)
}

func TestSetValueChecksIntegerWidth(t *testing.T) {
	o := newTestObject(t, "Gauge")

	tests := []struct {
		typ   DataType
		value any
		ok    bool
	}{
		{DataTypeInt8, int64(127), true},
		{DataTypeInt8, int64(-128), true},
		{DataTypeInt8, int64(1000), false},
		{DataTypeInt8, uint8(200), false},
		{DataTypeInt16, int32(-40000), false},
		{DataTypeInt32, uint64(1 << 31), false},
		{DataTypeInt64, uint64(1 << 63), false},
		{DataTypeUint8, 255, true},
		{DataTypeUint8, 256, false},
		{DataTypeUint8, int8(-1), false},
		{DataTypeUint16, uint32(70000), false},
		{DataTypeUint32, int64(-5), false},
		{DataTypeUint64, uint64(1 << 63), true},
	}

	for i, tt := range tests {
		key := fmt.Sprintf("k%d", i)
		require.NoError(t, o.Declare(AttributeMetadata{Key: key, Type: tt.typ, Nullable: true}))

		err := o.SetValue(key, tt.value)
		if tt.ok {
			assert.NoError(t, err, "%s = %v", tt.typ, tt.value)
		} else {
			assert.ErrorIs(t, err, ErrAttributeOutOfRange, "%s = %v", tt.typ, tt.value)
		}
	}
}

func TestAddObserverDeliversChanges(t *testing.T) {
	p := newPlayer(t)
	obs, rec := newObserver(t)
	ctx := NewContext("ctx1")

	require.NoError(t, p.AddObserver(obs, "volume", OptionNew|OptionOld, ctx))
	require.NoError(t, p.SetValue("volume", int64(10)))

	require.Len(t, rec.changes, 1)
	c := rec.changes[0]
	assert.Equal(t, "volume", c.KeyPath)
	assert.Same(t, p, c.Target)
	assert.Equal(t, ctx, c.Context)
	assert.Equal(t, int64(0), c.Old)
	assert.Equal(t, int64(10), c.New)
	assert.False(t, c.Prior)
	assert.False(t, c.Initial)
}

func TestAddObserverOptionsControlValues(t *testing.T) {
	p := newPlayer(t)
	obs, rec := newObserver(t)

	require.NoError(t, p.AddObserver(obs, "volume", OptionNone, Context{}))
	require.NoError(t, p.SetValue("volume", int64(5)))

	require.Len(t, rec.changes, 1)
	assert.Nil(t, rec.changes[0].Old)
	assert.Nil(t, rec.changes[0].New)
}

func TestAddObserverInitial(t *testing.T) {
	p := newPlayer(t)
	require.NoError(t, p.SetValue("volume", int64(7)))
	obs, rec := newObserver(t)

	require.NoError(t, p.AddObserver(obs, "volume", OptionInitial|OptionNew, Context{}))

	require.Len(t, rec.changes, 1)
	assert.True(t, rec.changes[0].Initial)
	assert.Equal(t, int64(7), rec.changes[0].New)
}

func TestAddObserverPrior(t *testing.T) {
	p := newPlayer(t)
	obs, rec := newObserver(t)

	require.NoError(t, p.AddObserver(obs, "volume", OptionPrior|OptionOld|OptionNew, Context{}))
	require.NoError(t, p.SetValue("volume", int64(3)))

	require.Len(t, rec.changes, 2)
	assert.True(t, rec.changes[0].Prior)
	assert.Equal(t, int64(0), rec.changes[0].Old)
	assert.Nil(t, rec.changes[0].New)
	assert.False(t, rec.changes[1].Prior)
	assert.Equal(t, int64(3), rec.changes[1].New)
}

func TestAddObserverUnknownKeyPath(t *testing.T) {
	p := newPlayer(t)
	obs, _ := newObserver(t)

	err := p.AddObserver(obs, "bogus", OptionNew, Context{})
	assert.ErrorIs(t, err, ErrUnknownKeyPath)
	assert.ErrorIs(t, p.AddObserver(obs, "", OptionNew, Context{}), ErrUnknownKeyPath)
	assert.ErrorIs(t, p.AddObserver(obs, "volume.", OptionNew, Context{}), ErrUnknownKeyPath)
	assert.ErrorIs(t, p.AddObserver(obs, "volume.level", OptionNew, Context{}), ErrUnknownKeyPath)
	assert.Equal(t, 0, p.ObservationCount())
}

func TestAddObserverRejectsNilAndInvalid(t *testing.T) {
	p := newPlayer(t)
	obs, _ := newObserver(t)

	assert.ErrorIs(t, p.AddObserver(nil, "volume", OptionNew, Context{}), ErrNilObserver)

	p.Invalidate()
	assert.ErrorIs(t, p.AddObserver(obs, "volume", OptionNew, Context{}), ErrInvalidObject)
}

func TestRegistrationsAreCounted(t *testing.T) {
	p := newPlayer(t)
	obs, rec := newObserver(t)
	ctx := NewContext("ctx")

	require.NoError(t, p.AddObserver(obs, "volume", OptionNew, ctx))
	require.NoError(t, p.AddObserver(obs, "volume", OptionNew, ctx))
	assert.Equal(t, 2, p.ObservationCount())
	assert.Equal(t, 2, p.ObservationCountFor(obs.ID()))

	require.NoError(t, p.SetValue("volume", int64(1)))
	assert.Len(t, rec.changes, 2, "duplicate registration delivers twice")

	require.NoError(t, p.RemoveObserver(obs.ID(), "volume", ctx))
	require.NoError(t, p.RemoveObserver(obs.ID(), "volume", ctx))
	assert.Equal(t, 0, p.ObservationCount())
}

func TestRemoveObserverNotRegistered(t *testing.T) {
	p := newPlayer(t)
	obs, _ := newObserver(t)

	err := p.RemoveObserver(obs.ID(), "volume", Context{})
	assert.ErrorIs(t, err, ErrNotRegistered)

	// Context must match by identity, not by label.
	require.NoError(t, p.AddObserver(obs, "volume", OptionNew, NewContext("same")))
	assert.ErrorIs(t, p.RemoveObserver(obs.ID(), "volume", NewContext("same")), ErrNotRegistered)
}

func TestDeliverySkipsInvalidObserver(t *testing.T) {
	p := newPlayer(t)
	obs, rec := newObserver(t)

	require.NoError(t, p.AddObserver(obs, "volume", OptionNew, Context{}))
	obs.Invalidate()
	require.NoError(t, p.SetValue("volume", int64(9)))

	assert.Empty(t, rec.changes)
}

func TestHostStrictPanicsOnOverRemoval(t *testing.T) {
	p := newPlayer(t)
	obs, _ := newObserver(t)

	lenient := Host{}
	err := lenient.Unregister(p, obs.ID(), "volume", Context{})
	assert.True(t, errors.Is(err, ErrNotRegistered))

	strict := Host{Strict: true}
	require.NoError(t, strict.Register(p, obs, "volume", OptionNew, Context{}))
	assert.NotPanics(t, func() { _ = strict.Unregister(p, obs.ID(), "volume", Context{}) })
	assert.Panics(t, func() { _ = strict.Unregister(p, obs.ID(), "volume", Context{}) })
}

func TestObjectInvalidateOnce(t *testing.T) {
	o := newTestObject(t, "Thing")

	assert.True(t, o.Invalidate())
	assert.False(t, o.Invalidate())
	assert.False(t, o.IsValid())
}
