package store

import (
	"encoding/hex"
	"testing"
)

func TestComputeDedupKeyFromID(t *testing.T) {
	body := []byte(`{"id":"evt_123","type":"x"}`)
	got := computeDedupKey(body)
	if got != "evt_123" {
		t.Fatalf("want evt_123, got %s", got)
	}
}

func TestComputeDedupKeyFromHash(t *testing.T) {
	body := []byte(`{"notId":"x"}`)
	got := computeDedupKey(body)
	// hex-encoded first 8 bytes -> 16 hex chars
	b, err := hex.DecodeString(got)
	if err != nil {
		t.Fatalf("invalid hex: %v", err)
	}
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
}

func TestComputeDedupKeyStable(t *testing.T) {
	body := []byte(`{"type":"solve.completed","cost":80}`)
	if computeDedupKey(body) != computeDedupKey(body) {
		t.Fatalf("same payload should produce the same key")
	}
	other := []byte(`{"type":"solve.completed","cost":81}`)
	if computeDedupKey(body) == computeDedupKey(other) {
		t.Fatalf("different payloads should produce different keys")
	}
}

func TestNullIfEmpty(t *testing.T) {
	if v := nullIfEmpty(""); v != nil {
		t.Fatalf("empty string -> nil expected")
	}
	if v := nullIfEmpty("x"); v != "x" {
		t.Fatalf("non-empty -> value expected, got %v", v)
	}
}

func TestToJSON(t *testing.T) {
	if v := toJSON(nil); v != nil {
		t.Fatalf("nil -> nil expected")
	}
	b, ok := toJSON([]string{"a", "b"}).([]byte)
	if !ok {
		t.Fatalf("expected []byte")
	}
	if string(b) != `["a","b"]` {
		t.Fatalf("unexpected encoding: %s", b)
	}
}
