package vatsim

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleNumber accepts a JSON number, a numeric string or null.
// The feed occasionally sends numbers as strings and positions as null.
type FlexibleNumber struct {
	value *float64
}

// UnmarshalJSON implements custom JSON unmarshaling for FlexibleNumber
func (f *FlexibleNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.value = nil
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.value = &num
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(str)
		if str == "" {
			f.value = nil
			return nil
		}
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			// Keep the record, lose the field
			f.value = nil
			return nil
		}
		f.value = &parsed
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleNumber", data)
}

// MarshalJSON writes the number or null
func (f FlexibleNumber) MarshalJSON() ([]byte, error) {
	if f.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.value)
}

// Ptr returns the value, or nil when absent
func (f FlexibleNumber) Ptr() *float64 {
	return f.value
}

// Float64 returns the value, or 0 when absent
func (f FlexibleNumber) Float64() float64 {
	if f.value == nil {
		return 0
	}
	return *f.value
}

// Valid reports whether a value was present
func (f FlexibleNumber) Valid() bool {
	return f.value != nil
}

// Number builds a present FlexibleNumber, mainly for tests and fixtures
func Number(v float64) FlexibleNumber {
	return FlexibleNumber{value: &v}
}
