package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

// TestNumber_JSON verifies that the no-value marker is written as null and read back.
func TestNumber_JSON(t *testing.T) {
	tests := []struct {
		in   Number
		want string
	}{
		{NumberOf(12.5), "12.5"},
		{NumberOf(0), "0"},
		{Number{}, "null"},
		{NumberOf(math.NaN()), "null"},
		{NumberOf(math.Inf(1)), "null"},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.in, err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}

	var n Number
	if err := json.Unmarshal([]byte("null"), &n); err != nil || n.Valid {
		t.Errorf("Unmarshal(null) = %+v, %v; want invalid", n, err)
	}
	if err := json.Unmarshal([]byte(`"x"`), &n); err == nil {
		t.Error("Unmarshal of a string into Number should fail")
	}
}

func TestText_JSON(t *testing.T) {
	got, _ := json.Marshal(struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
	}{A: TextOf("hi"), C: TextOf("")})
	if string(got) != `{"a":"hi","b":null,"c":""}` {
		t.Errorf("got %s", got)
	}
}

func TestOr(t *testing.T) {
	if got := (Number{}).Or(NumberOf(3)); got != NumberOf(3) {
		t.Errorf("Number.Or = %+v", got)
	}
	if got := NumberOf(1).Or(NumberOf(3)); got != NumberOf(1) {
		t.Errorf("Number.Or = %+v", got)
	}
	if got := (Text{}).Or(TextOf("b")); got != TextOf("b") {
		t.Errorf("Text.Or = %+v", got)
	}
}

// TestBrief_MarshalJSON verifies that every key is present and nil sequences become [].
func TestBrief_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Brief{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"events":[]`, `"news":[]`, `"downloads":[]`, `"tempC":null`, `"durationMinutes":null`, `"location":null`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}

	var back Brief
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Weather.TempC.Valid || back.Meta.Location.Valid {
		t.Errorf("round trip produced values: %+v", back)
	}
}
