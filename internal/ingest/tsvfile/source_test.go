package tsvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAddressFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.tsv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestFetchParsesAddresses(t *testing.T) {
	path := writeAddressFile(t, strings.Join([]string{
		"# depot first",
		"Mannerheimintie 1\t00100\tHelsinki\tFI",
		"",
		"Aleksanterinkatu 52\t00100\tHelsinki\tFI",
	}, "\n"))

	addrs, err := New(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addrs))
	}
	if addrs[0].AddressLine != "Mannerheimintie 1" || addrs[0].PostalCode != "00100" {
		t.Fatalf("unexpected first address: %+v", addrs[0])
	}
	if addrs[1].Locality != "Helsinki" || addrs[1].CountryRegion != "FI" {
		t.Fatalf("unexpected second address: %+v", addrs[1])
	}
}

func TestFetchShortLine(t *testing.T) {
	path := writeAddressFile(t, "Mannerheimintie 1\t00100\tHelsinki\tFI\nBroken line\t00100\n")
	_, err := New(path).Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected error for short line")
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("error should name the line number, got %v", err)
	}
}

func TestFetchMissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "none.tsv")).Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFetchNoAddresses(t *testing.T) {
	path := writeAddressFile(t, "# only a comment\n\n")
	if _, err := New(path).Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for empty address list")
	}
}

func TestName(t *testing.T) {
	if got := New("/tmp/a.tsv").Name(); got != "tsv:/tmp/a.tsv" {
		t.Fatalf("unexpected name %s", got)
	}
}
