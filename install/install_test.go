package install

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeProgramDir creates a directory that passes the kit library check.
func fakeProgramDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	lib := filepath.Join(dir, "libsofficeapp.so")
	if err := os.WriteFile(lib, []byte{0x7f, 'E', 'L', 'F'}, 0o644); err != nil {
		t.Fatalf("write fake library: %v", err)
	}
	return dir
}

func TestValidate(t *testing.T) {
	dir := fakeProgramDir(t)

	if err := Validate(dir); err != nil {
		t.Errorf("Valid program dir rejected: %v", err)
	}

	if err := Validate(""); err == nil {
		t.Error("Empty path should be rejected")
	}
	if err := Validate("relative/path"); err == nil {
		t.Error("Relative path should be rejected")
	}
	if err := Validate(t.TempDir()); err == nil {
		t.Error("Directory without kit library should be rejected")
	}
}

func TestValidate_MergedBuild(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "libmergedlo.so")
	if err := os.WriteFile(lib, []byte{0x7f, 'E', 'L', 'F'}, 0o644); err != nil {
		t.Fatalf("write fake library: %v", err)
	}
	if err := Validate(dir); err != nil {
		t.Errorf("Merged build dir rejected: %v", err)
	}
}

func TestDiscover_EnvOverride(t *testing.T) {
	dir := fakeProgramDir(t)
	t.Setenv(EnvInstallPath, dir)

	got, err := Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if got != dir {
		t.Errorf("Got %q, want %q", got, dir)
	}
}

func TestDiscover_BrokenOverride(t *testing.T) {
	t.Setenv(EnvInstallPath, t.TempDir())

	_, err := Discover()
	if err == nil {
		t.Fatal("Broken override should fail, not fall through")
	}
	if !strings.Contains(err.Error(), "kit library") {
		t.Errorf("Unexpected error: %v", err)
	}
}
