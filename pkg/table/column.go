// Package table provides the native single-machine table backend:
// ordered columns over typed column vectors, with deep per-column
// memory accounting used by the partitioner's byte-size estimate.
package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Column is the base interface for all column vectors.
type Column interface {
	// Dtype returns the column's dtype string ("object", "Int64",
	// "int64", "float64").
	Dtype() string
	Len() int
	Get(i int) interface{}
	Append(value interface{}) error
	// MemoryUsage returns the deep byte footprint of the column's data.
	MemoryUsage() int64
}

// ObjectColumn stores arbitrary values; every column starts out as one
// until a cast re-types it.
type ObjectColumn struct {
	values []interface{}
}

// NewObjectColumn creates a new object column
func NewObjectColumn() *ObjectColumn {
	return &ObjectColumn{
		values: make([]interface{}, 0, 1024),
	}
}

func (c *ObjectColumn) Dtype() string { return "object" }
func (c *ObjectColumn) Len() int      { return len(c.values) }

func (c *ObjectColumn) Get(i int) interface{} {
	return c.values[i]
}

func (c *ObjectColumn) Append(value interface{}) error {
	c.values = append(c.values, value)
	return nil
}

func (c *ObjectColumn) MemoryUsage() int64 {
	var total int64
	for _, v := range c.values {
		total += deepSize(v)
		total += 16 // interface header
	}
	return total
}

// Int64Column stores 64-bit integers. The nullable variant ("Int64")
// carries a validity mask; the plain variant ("int64") rejects nulls at
// append time, which is what makes casting a null-bearing column to
// "int64" fail.
type Int64Column struct {
	values   []int64
	valid    []bool
	nullable bool
}

// NewInt64Column creates a new integer column with the given null policy
func NewInt64Column(nullable bool) *Int64Column {
	return &Int64Column{
		values:   make([]int64, 0, 1024),
		valid:    make([]bool, 0, 1024),
		nullable: nullable,
	}
}

func (c *Int64Column) Dtype() string {
	if c.nullable {
		return "Int64"
	}
	return "int64"
}

func (c *Int64Column) Len() int { return len(c.values) }

func (c *Int64Column) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *Int64Column) Append(value interface{}) error {
	if value == nil {
		if !c.nullable {
			return fmt.Errorf("int64 column cannot hold nulls")
		}
		c.values = append(c.values, 0)
		c.valid = append(c.valid, false)
		return nil
	}

	intVal, err := toInt64(value)
	if err != nil {
		return err
	}
	c.values = append(c.values, intVal)
	c.valid = append(c.valid, true)
	return nil
}

func (c *Int64Column) MemoryUsage() int64 {
	return int64(len(c.values)*8 + len(c.valid))
}

// Float64Column stores 64-bit floats; nulls become NaN.
type Float64Column struct {
	values []float64
}

// NewFloat64Column creates a new float column
func NewFloat64Column() *Float64Column {
	return &Float64Column{
		values: make([]float64, 0, 1024),
	}
}

func (c *Float64Column) Dtype() string { return "float64" }
func (c *Float64Column) Len() int      { return len(c.values) }

func (c *Float64Column) Get(i int) interface{} {
	return c.values[i]
}

func (c *Float64Column) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, math.NaN())
		return nil
	}

	floatVal, err := toFloat64(value)
	if err != nil {
		return err
	}
	c.values = append(c.values, floatVal)
	return nil
}

func (c *Float64Column) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per float64
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as int64", string(v))
		}
		return floatToInt64(f)
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as int64: %w", v, err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("cannot cast %T to int64", value)
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, fmt.Errorf("cannot cast non-integral float %v to int64", f)
	}
	return int64(f), nil
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as float64", string(v))
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as float64: %w", v, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot cast %T to float64", value)
}

// deepSize estimates the byte footprint of a single value, recursing
// into containers. Estimates follow the native memory layout: string
// header 16 bytes, map bucket overhead 48, slice header 24.
func deepSize(v interface{}) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return int64(len(x)) + 16
	case json.Number:
		return int64(len(x)) + 16
	case int, int64, uint64, float64, int32, uint32, float32, int16, uint16, int8, uint8, uint:
		return 8
	case map[string]interface{}:
		var total int64 = 48
		for k, elem := range x {
			total += int64(len(k)) + 16
			total += deepSize(elem) + 16
		}
		return total
	case []interface{}:
		var total int64 = 24
		for _, elem := range x {
			total += deepSize(elem) + 16
		}
		return total
	case []float64:
		return 24 + int64(len(x)*8)
	case []int64:
		return 24 + int64(len(x)*8)
	case []string:
		var total int64 = 24
		for _, s := range x {
			total += int64(len(s)) + 16
		}
		return total
	}
	return 16
}
