package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestConfig represents a test configuration structure.
type TestConfig struct {
	Config string `help:"Config file path"`

	// Basic types
	StringField string   `toml:"test.string_field" env:"STRING_FIELD"`
	BoolField   bool     `toml:"test.bool_field" env:"BOOL_FIELD"`
	IntField    int      `toml:"test.int_field" env:"INT_FIELD"`
	SliceField  []string `toml:"test.slice_field" env:"SLICE_FIELD"`

	// Nested config
	NestedString string `toml:"nested.value" env:"NESTED_VALUE"`
}

func TestLoadConfigFromTOML(t *testing.T) {
	tomlContent := `
[test]
string_field = "hello world"
bool_field = true
int_field = 42
slice_field = ["item1", "item2", "item3"]

[nested]
value = "nested value"
`

	tmpFile := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(tmpFile, []byte(tomlContent), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	config := &TestConfig{
		Config: tmpFile,
	}

	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "hello world" {
		t.Errorf("Expected StringField to be 'hello world', got '%s'", config.StringField)
	}

	if !config.BoolField {
		t.Errorf("Expected BoolField to be true, got %v", config.BoolField)
	}

	if config.IntField != 42 {
		t.Errorf("Expected IntField to be 42, got %d", config.IntField)
	}

	expectedSlice := []string{"item1", "item2", "item3"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, config.SliceField)
	}

	if config.NestedString != "nested value" {
		t.Errorf("Expected NestedString to be 'nested value', got '%s'", config.NestedString)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("MCWARDEN_STRING_FIELD", "env string")
	t.Setenv("MCWARDEN_BOOL_FIELD", "false")
	t.Setenv("MCWARDEN_INT_FIELD", "123")
	t.Setenv("MCWARDEN_SLICE_FIELD", "a,b,c")
	t.Setenv("MCWARDEN_NESTED_VALUE", "env nested")

	config := &TestConfig{}

	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "env string" {
		t.Errorf("Expected StringField to be 'env string', got '%s'", config.StringField)
	}

	if config.BoolField {
		t.Errorf("Expected BoolField to be false, got %v", config.BoolField)
	}

	if config.IntField != 123 {
		t.Errorf("Expected IntField to be 123, got %d", config.IntField)
	}

	expectedSlice := []string{"a", "b", "c"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, config.SliceField)
	}
}

func TestEnvOverridesTOML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(tmpFile, []byte("[test]\nstring_field = \"from file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MCWARDEN_STRING_FIELD", "from env")

	config := &TestConfig{Config: tmpFile}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "from env" {
		t.Errorf("env var should override file, got '%s'", config.StringField)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	cases := map[string]string{
		"Port":        "port",
		"StopTimeout": "stop-timeout",
		"AIModel":     "a-i-model",
	}
	for in, want := range cases {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfigMissingFile(t *testing.T) {
	cfg := LoadLoggingConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadLoggingConfigModules(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.toml")
	content := `
[logging]
level = "debug"
format = "json"
supervisor = "warn"
server = "info"
`
	if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadLoggingConfig(tmpFile)
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("got level=%s format=%s", cfg.Level, cfg.Format)
	}
	if cfg.Modules["supervisor"] != "warn" {
		t.Errorf("supervisor module level = %q, want warn", cfg.Modules["supervisor"])
	}
}
