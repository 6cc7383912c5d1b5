// Package install locates LibreOffice installations on the local
// machine.
//
// The engine loads from a program directory, the one holding
// soffice.bin and the kit libraries. Discover finds one by checking the
// LOK_PATH environment variable first and then the directories known
// distributions install into.
package install

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/jacobtread/libreofficekit/errors"
	"github.com/jacobtread/libreofficekit/sys"
)

// EnvInstallPath overrides discovery when set. It must point at a
// program directory.
const EnvInstallPath = "LOK_PATH"

// candidates returns glob patterns for the program directories known
// installations use on this platform.
func candidates() []string {
	if runtime.GOOS == "darwin" {
		return []string{
			"/Applications/LibreOffice.app/Contents/Frameworks",
			"/Applications/LibreOffice.app/Contents/MacOS",
		}
	}
	return []string{
		"/usr/lib/libreoffice/program",
		"/usr/lib64/libreoffice/program",
		"/usr/local/lib/libreoffice/program",
		"/opt/libreoffice*/program",
		"/snap/libreoffice/current/lib/libreoffice/program",
	}
}

// Validate reports whether dir can serve as a program directory.
func Validate(dir string) error {
	if dir == "" {
		return errors.InvalidInput(errors.PhaseDiscover, "empty install path")
	}
	if !filepath.IsAbs(dir) {
		return errors.New(errors.PhaseDiscover, errors.KindInvalidInput).
			Detail("install path %s must be absolute", dir).
			Build()
	}
	if !sys.HasKitLibrary(dir) {
		return errors.New(errors.PhaseDiscover, errors.KindInvalidInput).
			Detail("%s does not contain a kit library", dir).
			Build()
	}
	return nil
}

// Discover returns the first directory that looks like a LibreOffice
// program directory. A LOK_PATH override wins and is validated rather
// than silently skipped.
func Discover() (string, error) {
	if dir := os.Getenv(EnvInstallPath); dir != "" {
		if err := Validate(dir); err != nil {
			return "", err
		}
		return dir, nil
	}

	for _, pattern := range candidates() {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, dir := range matches {
			if sys.HasKitLibrary(dir) {
				return dir, nil
			}
		}
	}

	return "", errors.New(errors.PhaseDiscover, errors.KindUnknownInit).
		Detail("no LibreOffice installation found, install one or set %s", EnvInstallPath).
		Build()
}
