package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gitsnow/gitsnow/ir"
)

func TestLoadIgnoreFileFromPath_FileNotExists(t *testing.T) {
	config, err := LoadIgnoreFileFromPath(filepath.Join(t.TempDir(), IgnoreFileName))
	if err != nil {
		t.Fatalf("LoadIgnoreFileFromPath() should not error when file doesn't exist, got: %v", err)
	}
	if config != nil {
		t.Error("LoadIgnoreFileFromPath() should return nil config when file doesn't exist")
	}
}

func TestLoadIgnoreFileFromPath_ValidTOML(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), IgnoreFileName)
	tomlContent := `[schemas]
patterns = ["scratch_*"]

[tables]
patterns = ["temp_*", "backup_*", "!backup_core"]

[views]
patterns = ["view_temp_*"]

[dynamic_tables]
patterns = ["dt_debug_*"]
`
	if err := os.WriteFile(testFile, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	config, err := LoadIgnoreFileFromPath(testFile)
	if err != nil {
		t.Fatalf("LoadIgnoreFileFromPath() error = %v", err)
	}

	want := &ir.IgnoreConfig{
		Schemas:       []string{"scratch_*"},
		Tables:        []string{"temp_*", "backup_*", "!backup_core"},
		Views:         []string{"view_temp_*"},
		DynamicTables: []string{"dt_debug_*"},
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadIgnoreFileFromPath_InvalidTOML(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), IgnoreFileName)
	if err := os.WriteFile(testFile, []byte("[tables\npatterns = "), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := LoadIgnoreFileFromPath(testFile); err == nil {
		t.Error("LoadIgnoreFileFromPath() should fail on invalid TOML")
	}
}

func TestLoadForScriptsDir(t *testing.T) {
	dir := t.TempDir()
	content := "[views]\npatterns = [\"v_*\"]\n"
	if err := os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	config, err := LoadForScriptsDir(dir)
	if err != nil {
		t.Fatalf("LoadForScriptsDir() error = %v", err)
	}
	if config == nil || len(config.Views) != 1 || config.Views[0] != "v_*" {
		t.Errorf("LoadForScriptsDir() = %+v; want views [v_*]", config)
	}
}
