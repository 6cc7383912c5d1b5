package urls

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromRelativePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.odt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	rel, err := filepath.Rel(wd, file)
	if err != nil {
		t.Fatalf("rel: %v", err)
	}

	u, err := FromRelativePath(rel)
	if err != nil {
		t.Fatalf("FromRelativePath failed: %v", err)
	}
	if !strings.HasPrefix(u.String(), "file:///") {
		t.Errorf("Expected file URL, got %q", u.String())
	}
	if !strings.HasSuffix(u.String(), "/doc.odt") {
		t.Errorf("Expected path to end in /doc.odt, got %q", u.String())
	}
}

func TestFromRelativePath_Missing(t *testing.T) {
	_, err := FromRelativePath("/__ABSOLUTE_PATH_THAT_DOES_NOT_EXIST__")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "does the file exist") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestFromAbsolutePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "/src", "file:///src"},
		{"nested", "/tmp/dir/file.odt", "file:///tmp/dir/file.odt"},
		{"spaces", "/tmp/my file.odt", "file:///tmp/my%20file.odt"},
		{"dot segments", "/tmp/./a/../file.odt", "file:///tmp/file.odt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := FromAbsolutePath(tt.input)
			if err != nil {
				t.Fatalf("FromAbsolutePath(%q) failed: %v", tt.input, err)
			}
			if u.String() != tt.want {
				t.Errorf("Got %q, want %q", u.String(), tt.want)
			}
		})
	}
}

func TestFromAbsolutePath_Relative(t *testing.T) {
	_, err := FromAbsolutePath("./src")
	if err == nil {
		t.Fatal("Expected error for relative path")
	}
	if !strings.Contains(err.Error(), "must be absolute") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestFromRemoteURI(t *testing.T) {
	// Remote URIs are kept verbatim
	u, err := FromRemoteURI("http://localhost:5555/file.docx")
	if err != nil {
		t.Fatalf("FromRemoteURI failed: %v", err)
	}
	if u.String() != "http://localhost:5555/file.docx" {
		t.Errorf("URI should be untouched, got %q", u.String())
	}

	if _, err := FromRemoteURI("file://file.docx"); err != nil {
		t.Errorf("file URI should be accepted: %v", err)
	}
}

func TestFromRemoteURI_Invalid(t *testing.T) {
	for _, uri := range []string{"h/malformed", "h", ""} {
		if _, err := FromRemoteURI(uri); err == nil {
			t.Errorf("Expected error for %q", uri)
		}
	}
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.docx")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	t.Run("remote", func(t *testing.T) {
		u, err := Parse("https://example.com/report.xlsx")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if u.String() != "https://example.com/report.xlsx" {
			t.Errorf("Got %q", u.String())
		}
	})

	t.Run("absolute", func(t *testing.T) {
		u, err := Parse("/tmp/out.pdf")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if u.String() != "file:///tmp/out.pdf" {
			t.Errorf("Got %q", u.String())
		}
	})

	t.Run("relative existing", func(t *testing.T) {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("getwd: %v", err)
		}
		rel, err := filepath.Rel(wd, file)
		if err != nil {
			t.Fatalf("rel: %v", err)
		}
		u, err := Parse(rel)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if !strings.HasSuffix(u.String(), "/in.docx") {
			t.Errorf("Got %q", u.String())
		}
	})

	t.Run("relative missing", func(t *testing.T) {
		if _, err := Parse("no-such-file-anywhere.odt"); err == nil {
			t.Error("Expected error for missing relative file")
		}
	})
}
