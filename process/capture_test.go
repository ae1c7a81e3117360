package process

import (
	"bytes"
	"testing"
)

func TestCapWriterUnderLimit(t *testing.T) {
	w := newCapWriter(10)
	n, err := w.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("unexpected write result: %d, %v", n, err)
	}
	if w.truncated {
		t.Fatal("should not be truncated")
	}
	if !bytes.Equal(w.Bytes(), []byte("hello")) {
		t.Fatalf("unexpected buffer: %q", w.Bytes())
	}
}

func TestCapWriterExactLimit(t *testing.T) {
	w := newCapWriter(5)
	_, _ = w.Write([]byte("hello"))
	if w.truncated {
		t.Fatal("writing exactly the cap is not truncation")
	}

	// The next byte is dropped and marks truncation.
	n, err := w.Write([]byte("!"))
	if err != nil || n != 1 {
		t.Fatalf("unexpected write result: %d, %v", n, err)
	}
	if !w.truncated {
		t.Fatal("expected truncation past the cap")
	}
	if string(w.Bytes()) != "hello" {
		t.Fatalf("buffer grew past cap: %q", w.Bytes())
	}
}

func TestCapWriterSplitsWrite(t *testing.T) {
	w := newCapWriter(3)
	n, err := w.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write must report full consumption: %d, %v", n, err)
	}
	if string(w.Bytes()) != "hel" {
		t.Fatalf("expected head of write kept, got %q", w.Bytes())
	}
	if !w.truncated {
		t.Fatal("expected truncation")
	}
}

func TestCapWriterUnlimited(t *testing.T) {
	w := newCapWriter(0)
	big := bytes.Repeat([]byte("x"), 1<<16)
	if _, err := w.Write(big); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.Bytes()) != 1<<16 || w.truncated {
		t.Fatalf("unlimited writer should keep everything: %d truncated=%v", len(w.Bytes()), w.truncated)
	}
}
