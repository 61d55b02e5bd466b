package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load of a missing file returned an error: %v", err)
	}
	if got != Default() {
		t.Fatalf("Load of a missing file = %#v, want Default()", got)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telescope.yaml")
	contents := "altAppInference: true\ncolor: false\ntrace: true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Config{AltAppInference: true, Color: false, Trace: true}
	if got != want {
		t.Fatalf("Load = %#v, want %#v", got, want)
	}
}
