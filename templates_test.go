package main

import (
	"bytes"
	"testing"
)

func TestWriteXYZ(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXYZ(&buf, "the label", []string{
		"H    0.0    0.0    0.0",
		"H    0.0    0.0    0.74",
	})
	if err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	want := `2
the label
H    0.0    0.0    0.0
H    0.0    0.0    0.74
`
	if got != want {
		t.Errorf("got\n%#+v, wanted\n%#+v\n", got, want)
	}
}

func TestWriteFix(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFix(&buf, "1-3,7"); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	want := `$fix
 atoms: 1-3,7
$end
`
	if got != want {
		t.Errorf("got\n%#+v, wanted\n%#+v\n", got, want)
	}
}
