// Package mods inspects the server's mod directory and extracts metadata
// from the jar archives it finds. Results are cached with a TTL and
// optionally persisted so a daemon restart does not force a rescan.
package mods

import (
	"archive/zip"
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"

	"github.com/mcwarden/mcwarden/internal/logging"
	"github.com/mcwarden/mcwarden/internal/metrics"
)

// Mod is the metadata extracted from a single jar.
type Mod struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Loader  string `json:"loader,omitempty"`
	File    string `json:"file"`
}

// Scanner lists mods with a TTL cache over directory scans.
type Scanner struct {
	dir       string
	ttl       time.Duration
	cacheFile string
	logger    *slog.Logger

	mu        sync.Mutex
	cached    []Mod
	scannedAt time.Time
}

// NewScanner creates a scanner for dir. cacheFile may be empty to disable
// persistence. A fresh persisted cache is adopted so the first List after a
// restart is served without touching the directory.
func NewScanner(dir string, ttl time.Duration, cacheFile string) *Scanner {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s := &Scanner{
		dir:       dir,
		ttl:       ttl,
		cacheFile: cacheFile,
		logger:    logging.GetLogger("mods"),
	}
	s.loadCache()
	return s
}

// List returns the mod inventory, rescanning when the cache is stale or
// force is set. A missing mods directory yields an empty list, not an error.
func (s *Scanner) List(force bool) ([]Mod, error) {
	s.mu.Lock()
	if !force && s.scannedAt != (time.Time{}) && time.Since(s.scannedAt) < s.ttl {
		mods := append([]Mod(nil), s.cached...)
		s.mu.Unlock()
		return mods, nil
	}
	s.mu.Unlock()

	mods, err := s.scan()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = mods
	s.scannedAt = time.Now()
	s.mu.Unlock()

	s.saveCache(mods)
	metrics.RecordModScan()
	return append([]Mod(nil), mods...), nil
}

// scan reads the mod directory once and extracts metadata from every jar.
func (s *Scanner) scan() ([]Mod, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("Mods directory does not exist", "dir", s.dir)
			return []Mod{}, nil
		}
		return nil, fmt.Errorf("failed to read mods directory: %w", err)
	}

	mods := make([]Mod, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".jar") {
			continue
		}

		mod := s.inspectJar(filepath.Join(s.dir, entry.Name()))
		mod.File = entry.Name()
		if mod.Name == "" {
			mod.Name = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}
		mods = append(mods, mod)
	}

	sort.Slice(mods, func(i, j int) bool {
		return strings.ToLower(mods[i].Name) < strings.ToLower(mods[j].Name)
	})

	s.logger.Info("Scanned mods directory", "dir", s.dir, "count", len(mods))
	return mods, nil
}

// inspectJar extracts metadata from one jar, trying the Fabric descriptor,
// then the Forge/NeoForge one, then the jar manifest. A jar with none of
// them still lists by filename.
func (s *Scanner) inspectJar(path string) Mod {
	r, err := zip.OpenReader(path)
	if err != nil {
		s.logger.Warn("Failed to open jar", "file", path, "error", err)
		return Mod{}
	}
	defer r.Close()

	for _, f := range r.File {
		switch f.Name {
		case "fabric.mod.json":
			if mod, ok := parseFabric(readZipFile(f)); ok {
				return mod
			}
		case "META-INF/mods.toml", "META-INF/neoforge.mods.toml":
			if mod, ok := parseForge(readZipFile(f)); ok {
				return mod
			}
		}
	}

	for _, f := range r.File {
		if f.Name == "META-INF/MANIFEST.MF" {
			if mod, ok := parseManifest(readZipFile(f)); ok {
				return mod
			}
		}
	}
	return Mod{}
}

func readZipFile(f *zip.File) []byte {
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return data
}

// parseFabric reads a fabric.mod.json descriptor.
func parseFabric(data []byte) (Mod, bool) {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return Mod{}, false
	}
	id := gjson.GetBytes(data, "id").String()
	if id == "" {
		return Mod{}, false
	}
	name := gjson.GetBytes(data, "name").String()
	if name == "" {
		name = id
	}
	return Mod{
		ID:      id,
		Name:    name,
		Version: gjson.GetBytes(data, "version").String(),
		Loader:  "fabric",
	}, true
}

// forgeDescriptor models the subset of mods.toml the scanner cares about.
type forgeDescriptor struct {
	Mods []struct {
		ModID       string `toml:"modId"`
		Version     string `toml:"version"`
		DisplayName string `toml:"displayName"`
	} `toml:"mods"`
}

// parseForge reads a META-INF/mods.toml descriptor.
func parseForge(data []byte) (Mod, bool) {
	if len(data) == 0 {
		return Mod{}, false
	}
	var desc forgeDescriptor
	if err := toml.Unmarshal(data, &desc); err != nil || len(desc.Mods) == 0 {
		return Mod{}, false
	}
	first := desc.Mods[0]
	if first.ModID == "" {
		return Mod{}, false
	}
	name := first.DisplayName
	if name == "" {
		name = first.ModID
	}
	return Mod{
		ID:      first.ModID,
		Name:    name,
		Version: first.Version,
		Loader:  "forge",
	}, true
}

// parseManifest falls back to Implementation-Title/Version from the jar
// manifest.
func parseManifest(data []byte) (Mod, bool) {
	if len(data) == 0 {
		return Mod{}, false
	}
	var title, version string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "Implementation-Title:"); ok {
			title = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "Implementation-Version:"); ok {
			version = strings.TrimSpace(v)
		}
	}
	if title == "" {
		return Mod{}, false
	}
	return Mod{Name: title, Version: version}, true
}

// cacheEnvelope is the persisted cache format.
type cacheEnvelope struct {
	ScannedAt time.Time `json:"scanned_at"`
	Mods      []Mod     `json:"mods"`
}

func (s *Scanner) loadCache() {
	if s.cacheFile == "" {
		return
	}
	data, err := os.ReadFile(s.cacheFile)
	if err != nil {
		return
	}
	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("Ignoring corrupt mod cache", "file", s.cacheFile, "error", err)
		return
	}
	if time.Since(env.ScannedAt) >= s.ttl {
		return
	}
	s.cached = env.Mods
	s.scannedAt = env.ScannedAt
	s.logger.Debug("Loaded mod cache", "file", s.cacheFile, "count", len(env.Mods))
}

func (s *Scanner) saveCache(mods []Mod) {
	if s.cacheFile == "" {
		return
	}
	env := cacheEnvelope{ScannedAt: time.Now(), Mods: mods}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cacheFile), 0o755); err != nil {
		s.logger.Warn("Failed to create mod cache directory", "error", err)
		return
	}
	if err := os.WriteFile(s.cacheFile, data, 0o644); err != nil {
		s.logger.Warn("Failed to persist mod cache", "file", s.cacheFile, "error", err)
	}
}
