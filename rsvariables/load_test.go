package rsvariables_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leafbridge/rootstock/rsvariables"
)

// writeFile writes a variables file fixture and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write the fixture %s: %v", name, err)
	}
	return path
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vars.json", `{
		"Name": "billing",
		"Replicas": 42,
		"Ratio": 1.5,
		"Enabled": true,
		"Empty": null,
		"Nested": {"a": 1},
		"Items": ["x", "y"]
	}`)

	store := rsvariables.NewStore()
	if err := rsvariables.LoadFile(store, path); err != nil {
		t.Fatalf("failed to load the file: %v", err)
	}

	checks := map[string]string{
		"Name":     "billing",
		"Replicas": "42",
		"Ratio":    "1.5",
		"Enabled":  "true",
		"Empty":    "",
		"Nested":   `{"a":1}`,
		"Items":    `["x","y"]`,
	}
	for key, want := range checks {
		if got := store.Value(key); got != want {
			t.Errorf("%s: %q (expected %q)", key, got, want)
		}
	}
}

func TestLoadFileJSONC(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vars.jsonc", `{
		// The project these variables belong to.
		"Name": "billing",
		"Enabled": true, /* inline */
	}`)

	store := rsvariables.NewStore()
	if err := rsvariables.LoadFile(store, path); err != nil {
		t.Fatalf("failed to load the file: %v", err)
	}
	if got := store.Value("Name"); got != "billing" {
		t.Errorf("Name: %q (expected billing)", got)
	}
	if !store.Flag("Enabled") {
		t.Error("Enabled is not set")
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vars.yaml", `
Name: billing
Replicas: 42
Ratio: 1.5
Enabled: true
Nested:
  a: 1
`)

	store := rsvariables.NewStore()
	if err := rsvariables.LoadFile(store, path); err != nil {
		t.Fatalf("failed to load the file: %v", err)
	}

	checks := map[string]string{
		"Name":     "billing",
		"Replicas": "42",
		"Ratio":    "1.5",
		"Enabled":  "true",
		"Nested":   `{"a":1}`,
	}
	for key, want := range checks {
		if got := store.Value(key); got != want {
			t.Errorf("%s: %q (expected %q)", key, got, want)
		}
	}
}

func TestLoadFileDotenv(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vars.env", `
NAME=billing
QUOTED="hello world"
`)

	store := rsvariables.NewStore()
	if err := rsvariables.LoadFile(store, path); err != nil {
		t.Fatalf("failed to load the file: %v", err)
	}
	if got := store.Value("NAME"); got != "billing" {
		t.Errorf("NAME: %q (expected billing)", got)
	}
	if got := store.Value("QUOTED"); got != "hello world" {
		t.Errorf("QUOTED: %q (expected hello world)", got)
	}
}

func TestLoadFileMissing(t *testing.T) {
	store := rsvariables.NewStore()
	err := rsvariables.LoadFile(store, filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("loading a missing file succeeded (expected an error)")
	}
	if !errors.Is(err, rsvariables.ErrFileNotFound) {
		t.Errorf("loading a missing file returned %v (expected ErrFileNotFound)", err)
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vars.toml", `name = "billing"`)

	store := rsvariables.NewStore()
	if err := rsvariables.LoadFile(store, path); err == nil {
		t.Fatal("loading an unsupported format succeeded (expected an error)")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vars.json", `{"Name": `)

	store := rsvariables.NewStore()
	if err := rsvariables.LoadFile(store, path); err == nil {
		t.Fatal("loading a malformed file succeeded (expected an error)")
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.json", `{"Shared": "first", "FirstOnly": "kept"}`)
	second := writeFile(t, dir, "second.json", `{"Shared": "second"}`)

	store, err := rsvariables.Load(rsvariables.Sources{Files: []string{first, second}})
	if err != nil {
		t.Fatalf("failed to load the sources: %v", err)
	}

	if got := store.Value("Shared"); got != "second" {
		t.Errorf("Shared: %q (expected the later file to win)", got)
	}
	if got := store.Value("FirstOnly"); got != "kept" {
		t.Errorf("FirstOnly: %q (expected kept)", got)
	}
}
