package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// HabitValue is either a boolean (done / not done) or a non-negative count.
// The zero value is the boolean false, which is also what an absent value reads as.
// Fields are exported so the value takes part in structural hashing.
type HabitValue struct {
	Numeric bool
	Done    bool
	Count   int
}

// Bool returns a boolean habit value.
func Bool(done bool) HabitValue {
	return HabitValue{Done: done}
}

// Count returns a numeric habit value clamped to zero.
func Count(n int) HabitValue {
	if n < 0 {
		n = 0
	}
	return HabitValue{Numeric: true, Count: n}
}

// IsCompleted reports whether v is true or a number greater than zero.
func (v HabitValue) IsCompleted() bool {
	if v.Numeric {
		return v.Count > 0
	}
	return v.Done
}

func (v HabitValue) String() string {
	if v.Numeric {
		return strconv.Itoa(v.Count)
	}
	return strconv.FormatBool(v.Done)
}

func (v HabitValue) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return []byte(strconv.Itoa(v.Count)), nil
	}
	return []byte(strconv.FormatBool(v.Done)), nil
}

func (v *HabitValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*v = Bool(true)
		return nil
	case "false", "null":
		*v = Bool(false)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("habit value must be a boolean or a number: %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*v = Count(int(i))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("invalid habit value %s: %w", data, err)
	}
	*v = Count(int(f))
	return nil
}
