package types

import (
	"encoding/json"
)

// OptionalTable is an input collection that may be absent from a snapshot.
// An absent table resolves to an empty table through OrEmpty; callers must
// not treat absence as an error.
type OptionalTable[T any] struct {
	rows    []T
	present bool
}

// SomeTable wraps rows as a present table. A nil slice is still present.
func SomeTable[T any](rows []T) OptionalTable[T] {
	return OptionalTable[T]{rows: rows, present: true}
}

// NoTable returns an absent table
func NoTable[T any]() OptionalTable[T] {
	return OptionalTable[T]{}
}

// IsPresent reports whether the table was supplied
func (t OptionalTable[T]) IsPresent() bool {
	return t.present
}

// OrEmpty returns the rows, or an empty slice for an absent table
func (t OptionalTable[T]) OrEmpty() []T {
	if !t.present || t.rows == nil {
		return []T{}
	}
	return t.rows
}

func (t OptionalTable[T]) MarshalJSON() ([]byte, error) {
	if !t.present {
		return []byte("null"), nil
	}
	return json.Marshal(t.OrEmpty())
}

func (t *OptionalTable[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = NoTable[T]()
		return nil
	}
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	*t = SomeTable(rows)
	return nil
}
