package cgt

import "testing"

func TestJSONObjectWriterOrder(t *testing.T) {
	var w jsonObjectWriter
	w.Append("b", 2)
	w.Append("a", 1)

	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() returned an unexpected error: %v", err)
	}
	// Insertion order is preserved, unlike a map.
	if want := `{"b":2,"a":1}`; string(got) != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
}

func TestJSONObjectWriterOptional(t *testing.T) {
	var w jsonObjectWriter
	w.Append("command", "buy")
	w.Optional("memo", "")
	w.Optional("note", "kept")

	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"command":"buy","note":"kept"}`; string(got) != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
}

func TestJSONObjectWriterEmbedFrom(t *testing.T) {
	inner := struct {
		A int `json:"a"`
	}{A: 1}

	var w jsonObjectWriter
	w.EmbedFrom(inner)
	w.Append("b", 2)

	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"a":1,"b":2}`; string(got) != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
}

func TestJSONObjectWriterEmpty(t *testing.T) {
	var w jsonObjectWriter
	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "{}" {
		t.Errorf("MarshalJSON() of an empty writer = %s, want {}", got)
	}
}
