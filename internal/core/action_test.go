package core

import "testing"

func TestParseActionKind(t *testing.T) {
	cases := map[string]ActionKind{
		"":       ActionSend,
		"send":   ActionSend,
		"edit":   ActionEdit,
		"delete": ActionDelete,
		"Send":   ActionUnknown,
		"join":   ActionUnknown,
	}
	for in, want := range cases {
		if got := ParseActionKind(in); got != want {
			t.Errorf("ParseActionKind(%q) = %v, want %v", in, got, want)
		}
	}
}
