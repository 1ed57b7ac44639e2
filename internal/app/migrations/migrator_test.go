package migrations

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestVersion(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{name: "001_init.sql", expected: "001"},
		{name: "migrations/002_pipeline_runs.sql", expected: "002"},
		{name: "003.sql", expected: "003"},
	}
	for i, testCase := range testCases {
		if actual := Version(testCase.name); actual != testCase.expected {
			t.Errorf("[i=%v] Expected %q but actual=%q", i, testCase.expected, actual)
		}
	}
}

func TestPendingFilesAreSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_runs.sql", "001_init.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600); err != nil {
			t.Fatalf("write %s: %s", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755); err != nil {
		t.Fatalf("mkdir: %s", err)
	}

	files, err := PendingFiles(dir)
	if err != nil {
		t.Fatalf("PendingFiles: %s", err)
	}
	expected := []string{filepath.Join(dir, "001_init.sql"), filepath.Join(dir, "002_runs.sql")}
	if !reflect.DeepEqual(files, expected) {
		t.Fatalf("Expected %v but actual=%v", expected, files)
	}
}

func TestShippedMigrationsAreOrdered(t *testing.T) {
	files, err := PendingFiles(filepath.Join("..", "..", "..", "migrations"))
	if err != nil {
		t.Fatalf("PendingFiles: %s", err)
	}
	if len(files) == 0 {
		t.Fatalf("Expected shipped migrations")
	}
	seen := make(map[string]bool)
	for _, f := range files {
		v := Version(f)
		if seen[v] {
			t.Errorf("Duplicate migration version %s", v)
		}
		seen[v] = true
	}
}
