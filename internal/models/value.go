package models

import (
	"encoding/json"
	"math"
)

// Number is a numeric leaf of the brief. Valid=false is the "no value" marker and
// serialises as JSON null; a valid Number is always finite.
type Number struct {
	Value float64
	Valid bool
}

// NumberOf returns a valid Number for finite v and the no-value marker otherwise.
func NumberOf(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// Or returns n when valid, otherwise other.
func (n Number) Or(other Number) Number {
	if n.Valid {
		return n
	}
	return other
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Number{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NumberOf(v)
	return nil
}

// Text is a string leaf of the brief. Valid=false is the "no value" marker and
// serialises as JSON null, distinct from a present empty string.
type Text struct {
	Value string
	Valid bool
}

// TextOf returns a valid Text holding s.
func TextOf(s string) Text {
	return Text{Value: s, Valid: true}
}

// Or returns t when valid, otherwise other.
func (t Text) Or(other Text) Text {
	if t.Valid {
		return t
	}
	return other
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Text{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = TextOf(s)
	return nil
}
