package mods

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeJar creates a jar in dir containing the given entries.
func writeJar(t *testing.T, dir, name string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for entryName, content := range entries {
		f, err := w.Create(entryName)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write jar: %v", err)
	}
}

const fabricDescriptor = `{
	"schemaVersion": 1,
	"id": "sodium",
	"name": "Sodium",
	"version": "0.5.8"
}`

const forgeDescriptorTOML = `
modLoader = "javafml"

[[mods]]
modId = "jei"
version = "15.2.0"
displayName = "Just Enough Items"
`

const manifestOnly = `Manifest-Version: 1.0
Implementation-Title: OldLib
Implementation-Version: 1.2.3
`

func TestListExtractsMetadata(t *testing.T) {
	dir := t.TempDir()
	writeJar(t, dir, "sodium.jar", map[string]string{"fabric.mod.json": fabricDescriptor})
	writeJar(t, dir, "jei.jar", map[string]string{"META-INF/mods.toml": forgeDescriptorTOML})
	writeJar(t, dir, "oldlib.jar", map[string]string{"META-INF/MANIFEST.MF": manifestOnly})
	writeJar(t, dir, "mystery.jar", map[string]string{"some/other/File.class": ""})

	s := NewScanner(dir, time.Minute, "")
	mods, err := s.List(false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(mods) != 4 {
		t.Fatalf("got %d mods, want 4: %+v", len(mods), mods)
	}

	// Sorted by name, case-insensitive
	wantNames := []string{"Just Enough Items", "mystery", "OldLib", "Sodium"}
	for i, want := range wantNames {
		if mods[i].Name != want {
			t.Errorf("mods[%d].Name = %q, want %q", i, mods[i].Name, want)
		}
	}

	byFile := make(map[string]Mod)
	for _, m := range mods {
		byFile[m.File] = m
	}

	if m := byFile["sodium.jar"]; m.ID != "sodium" || m.Version != "0.5.8" || m.Loader != "fabric" {
		t.Errorf("fabric metadata = %+v", m)
	}
	if m := byFile["jei.jar"]; m.ID != "jei" || m.Version != "15.2.0" || m.Loader != "forge" {
		t.Errorf("forge metadata = %+v", m)
	}
	if m := byFile["oldlib.jar"]; m.Name != "OldLib" || m.Version != "1.2.3" {
		t.Errorf("manifest metadata = %+v", m)
	}
	if m := byFile["mystery.jar"]; m.Name != "mystery" {
		t.Errorf("fallback metadata = %+v", m)
	}
}

func TestListSkipsNonJars(t *testing.T) {
	dir := t.TempDir()
	writeJar(t, dir, "real.jar", map[string]string{"fabric.mod.json": fabricDescriptor})
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "disabled.jar"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewScanner(dir, time.Minute, "")
	mods, err := s.List(false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mods) != 1 || mods[0].File != "real.jar" {
		t.Errorf("mods = %+v, want only real.jar", mods)
	}
}

func TestListMissingDirectory(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "absent"), time.Minute, "")
	mods, err := s.List(false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mods) != 0 {
		t.Errorf("mods = %+v, want empty", mods)
	}
}

func TestListCachesUntilForced(t *testing.T) {
	dir := t.TempDir()
	writeJar(t, dir, "first.jar", map[string]string{"fabric.mod.json": fabricDescriptor})

	s := NewScanner(dir, time.Hour, "")
	mods, err := s.List(false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("got %d mods", len(mods))
	}

	// New jar appears but the cache is fresh
	writeJar(t, dir, "second.jar", map[string]string{"fabric.mod.json": fabricDescriptor})

	mods, err = s.List(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 1 {
		t.Errorf("cached list = %d mods, want 1", len(mods))
	}

	mods, err = s.List(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 2 {
		t.Errorf("forced list = %d mods, want 2", len(mods))
	}
}

func TestCachePersistsAcrossScanners(t *testing.T) {
	dir := t.TempDir()
	cacheFile := filepath.Join(t.TempDir(), "cache", "mods.json")
	writeJar(t, dir, "sodium.jar", map[string]string{"fabric.mod.json": fabricDescriptor})

	s := NewScanner(dir, time.Hour, cacheFile)
	if _, err := s.List(false); err != nil {
		t.Fatal(err)
	}

	// Remove the directory entirely; the next scanner should serve the
	// persisted cache without touching disk contents.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	s2 := NewScanner(dir, time.Hour, cacheFile)
	mods, err := s2.List(false)
	if err != nil {
		t.Fatalf("List from cache: %v", err)
	}
	if len(mods) != 1 || mods[0].Name != "Sodium" {
		t.Errorf("cached mods = %+v", mods)
	}
}

func TestCorruptCacheIgnored(t *testing.T) {
	dir := t.TempDir()
	cacheFile := filepath.Join(t.TempDir(), "mods.json")
	if err := os.WriteFile(cacheFile, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeJar(t, dir, "sodium.jar", map[string]string{"fabric.mod.json": fabricDescriptor})

	s := NewScanner(dir, time.Hour, cacheFile)
	mods, err := s.List(false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mods) != 1 {
		t.Errorf("mods = %+v", mods)
	}
}
