package kvo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCar(t *testing.T) (car, engine *Object) {
	t.Helper()
	car = newTestObject(t, "Car")
	engine = newTestObject(t, "Engine")
	require.NoError(t, car.Declare(AttributeMetadata{Key: "engine", Type: DataTypeObject, Nullable: true}))
	require.NoError(t, engine.Declare(AttributeMetadata{Key: "rpm", Type: DataTypeUint32, Default: uint32(0)}))
	require.NoError(t, car.SetValue("engine", engine))
	return car, engine
}

func TestValueForKeyPathNested(t *testing.T) {
	car, engine := newCar(t)
	require.NoError(t, engine.SetValue("rpm", uint32(900)))

	v, err := car.ValueForKeyPath("engine.rpm")
	require.NoError(t, err)
	assert.Equal(t, uint32(900), v)

	_, err = car.ValueForKeyPath("engine.torque")
	assert.ErrorIs(t, err, ErrUnknownKeyPath)
}

func TestValueForKeyPathNilIntermediate(t *testing.T) {
	car, _ := newCar(t)
	require.NoError(t, car.SetValue("engine", nil))

	v, err := car.ValueForKeyPath("engine.rpm")
	require.NoError(t, err)
	assert.Nil(t, v)

	err = car.SetValueForKeyPath("engine.rpm", uint32(1))
	assert.ErrorIs(t, err, ErrNilIntermediate)
}

func TestSetNestedNotifiesEveryObjectOnPath(t *testing.T) {
	car, engine := newCar(t)
	dash, dashRec := newObserver(t)
	gauge, gaugeRec := newObserver(t)

	require.NoError(t, car.AddObserver(dash, "engine.rpm", OptionNew|OptionOld, Context{}))
	require.NoError(t, engine.AddObserver(gauge, "rpm", OptionNew, Context{}))

	require.NoError(t, car.SetValueForKeyPath("engine.rpm", uint32(3000)))

	require.Len(t, dashRec.changes, 1)
	assert.Equal(t, "engine.rpm", dashRec.changes[0].KeyPath)
	assert.Equal(t, uint32(0), dashRec.changes[0].Old)
	assert.Equal(t, uint32(3000), dashRec.changes[0].New)

	require.Len(t, gaugeRec.changes, 1)
	assert.Equal(t, "rpm", gaugeRec.changes[0].KeyPath)
	assert.Same(t, engine, gaugeRec.changes[0].Target)
}

func TestReplacingIntermediateNotifiesExtendedPaths(t *testing.T) {
	car, _ := newCar(t)
	dash, rec := newObserver(t)

	spare := newTestObject(t, "Engine")
	require.NoError(t, spare.Declare(AttributeMetadata{Key: "rpm", Type: DataTypeUint32, Default: uint32(750)}))

	require.NoError(t, car.AddObserver(dash, "engine.rpm", OptionNew, Context{}))
	require.NoError(t, car.SetValue("engine", spare))

	require.Len(t, rec.changes, 1)
	assert.Equal(t, uint32(750), rec.changes[0].New)
}

func TestDirectLeafChangeDoesNotNotifyRootPath(t *testing.T) {
	car, engine := newCar(t)
	dash, rec := newObserver(t)

	require.NoError(t, car.AddObserver(dash, "engine.rpm", OptionNew, Context{}))
	require.NoError(t, engine.SetValue("rpm", uint32(10)))

	// Objects keep no parent links; only changes made through the car
	// reach the car's observers.
	assert.Empty(t, rec.changes)
}

func TestObserveThroughNilIntermediate(t *testing.T) {
	car, _ := newCar(t)
	require.NoError(t, car.SetValue("engine", nil))
	dash, _ := newObserver(t)

	assert.NoError(t, car.AddObserver(dash, "engine.whatever", OptionNew, Context{}))
}

func TestSplitKeyPath(t *testing.T) {
	tests := []struct {
		path    string
		want    []string
		wantErr bool
	}{
		{"a", []string{"a"}, false},
		{"a.b.c", []string{"a", "b", "c"}, false},
		{"", nil, true},
		{".a", nil, true},
		{"a..b", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := splitKeyPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownKeyPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
