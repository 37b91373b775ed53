package kvo

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// DataType represents the type of an attribute value.
type DataType uint8

const (
	DataTypeAny DataType = iota
	DataTypeBool
	DataTypeInt8
	DataTypeInt16
	DataTypeInt32
	DataTypeInt64
	DataTypeUint8
	DataTypeUint16
	DataTypeUint32
	DataTypeUint64
	DataTypeFloat32
	DataTypeFloat64
	DataTypeString
	DataTypeBytes
	DataTypeObject
)

var dataTypeNames = []string{
	"any", "bool", "int8", "int16", "int32", "int64",
	"uint8", "uint16", "uint32", "uint64", "float32", "float64",
	"string", "bytes", "object",
}

// String returns the data type name.
func (d DataType) String() string {
	if int(d) < len(dataTypeNames) {
		return dataTypeNames[d]
	}
	return "unknown"
}

// ParseDataType parses a data type name as returned by String.
func ParseDataType(s string) (DataType, error) {
	for i, name := range dataTypeNames {
		if name == s {
			return DataType(i), nil
		}
	}
	return DataTypeAny, fmt.Errorf("unknown data type: %q", s)
}

// AttributeMetadata describes an attribute's properties.
type AttributeMetadata struct {
	// Key is the attribute name used in key paths. Must not contain '.'.
	Key string

	// Type is the data type of the attribute value.
	Type DataType

	// Nullable indicates if nil is a valid value.
	Nullable bool

	// MinValue is the minimum allowed value (for numeric types).
	MinValue any

	// MaxValue is the maximum allowed value (for numeric types).
	MaxValue any

	// Default is the initial value.
	Default any

	// Description is a human-readable description.
	Description string
}

// Attribute holds a declared attribute's current value.
type Attribute struct {
	mu       sync.RWMutex
	metadata *AttributeMetadata
	value    any
}

// Attribute errors.
var (
	ErrAttributeNotNullable = errors.New("attribute does not accept null")
	ErrAttributeValueType   = errors.New("invalid value type for attribute")
	ErrAttributeOutOfRange  = errors.New("value out of range")
	ErrInvalidAttributeKey  = errors.New("invalid attribute key")
)

// newAttribute creates an attribute holding the metadata default.
func newAttribute(meta *AttributeMetadata) *Attribute {
	return &Attribute{
		metadata: meta,
		value:    meta.Default,
	}
}

// Key returns the attribute key.
func (a *Attribute) Key() string {
	return a.metadata.Key
}

// Metadata returns the attribute metadata.
func (a *Attribute) Metadata() *AttributeMetadata {
	return a.metadata
}

// Value returns the current attribute value.
func (a *Attribute) Value() any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// set validates and stores value, returning the previous value.
func (a *Attribute) set(value any) (any, error) {
	if err := a.validate(value); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	old := a.value
	a.value = value
	return old, nil
}

func (a *Attribute) validate(value any) error {
	if value == nil {
		if !a.metadata.Nullable {
			return fmt.Errorf("%w: %s", ErrAttributeNotNullable, a.metadata.Key)
		}
		return nil
	}

	switch a.metadata.Type {
	case DataTypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expects bool", ErrAttributeValueType, a.metadata.Key)
		}
	case DataTypeInt8, DataTypeInt16, DataTypeInt32, DataTypeInt64:
		if !isIntegerType(value) {
			return fmt.Errorf("%w: %s expects integer", ErrAttributeValueType, a.metadata.Key)
		}
		if !fitsWidth(a.metadata.Type, value) {
			return fmt.Errorf("%w: %v overflows %s", ErrAttributeOutOfRange, value, a.metadata.Type)
		}
	case DataTypeUint8, DataTypeUint16, DataTypeUint32, DataTypeUint64:
		if !isIntegerType(value) {
			return fmt.Errorf("%w: %s expects unsigned integer", ErrAttributeValueType, a.metadata.Key)
		}
		if !fitsWidth(a.metadata.Type, value) {
			return fmt.Errorf("%w: %v overflows %s", ErrAttributeOutOfRange, value, a.metadata.Type)
		}
	case DataTypeFloat32, DataTypeFloat64:
		if !isNumericType(value) {
			return fmt.Errorf("%w: %s expects float", ErrAttributeValueType, a.metadata.Key)
		}
	case DataTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %s expects string", ErrAttributeValueType, a.metadata.Key)
		}
	case DataTypeBytes:
		if _, ok := value.([]byte); !ok {
			return fmt.Errorf("%w: %s expects bytes", ErrAttributeValueType, a.metadata.Key)
		}
	case DataTypeObject:
		if _, ok := value.(*Object); !ok {
			return fmt.Errorf("%w: %s expects object", ErrAttributeValueType, a.metadata.Key)
		}
	}

	if a.metadata.MinValue != nil || a.metadata.MaxValue != nil {
		return a.checkRange(value)
	}
	return nil
}

func (a *Attribute) checkRange(value any) error {
	v, ok := toFloat64(value)
	if !ok {
		return nil
	}

	if a.metadata.MinValue != nil {
		min, _ := toFloat64(a.metadata.MinValue)
		if v < min {
			return fmt.Errorf("%w: %v < %v", ErrAttributeOutOfRange, value, a.metadata.MinValue)
		}
	}

	if a.metadata.MaxValue != nil {
		max, _ := toFloat64(a.metadata.MaxValue)
		if v > max {
			return fmt.Errorf("%w: %v > %v", ErrAttributeOutOfRange, value, a.metadata.MaxValue)
		}
	}

	return nil
}

// fitsWidth reports whether the integer v is representable in t.
func fitsWidth(t DataType, v any) bool {
	var n int64
	var u uint64
	unsigned := false
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		u, unsigned = uint64(x), true
	case uint8:
		u, unsigned = uint64(x), true
	case uint16:
		u, unsigned = uint64(x), true
	case uint32:
		u, unsigned = uint64(x), true
	case uint64:
		u, unsigned = x, true
	default:
		return false
	}

	var lo int64
	var hi uint64
	switch t {
	case DataTypeInt8:
		lo, hi = math.MinInt8, math.MaxInt8
	case DataTypeInt16:
		lo, hi = math.MinInt16, math.MaxInt16
	case DataTypeInt32:
		lo, hi = math.MinInt32, math.MaxInt32
	case DataTypeInt64:
		lo, hi = math.MinInt64, math.MaxInt64
	case DataTypeUint8:
		hi = math.MaxUint8
	case DataTypeUint16:
		hi = math.MaxUint16
	case DataTypeUint32:
		hi = math.MaxUint32
	case DataTypeUint64:
		hi = math.MaxUint64
	default:
		return true
	}

	if unsigned {
		return u <= hi
	}
	return n >= lo && (n < 0 || uint64(n) <= hi)
}

func isIntegerType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func isNumericType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
