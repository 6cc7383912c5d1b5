package sys

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ebitengine/purego"
	"github.com/jacobtread/libreofficekit/errors"
)

// Shared library candidates inside a LibreOffice program directory.
// Stock builds export the kit entry points from libsofficeapp, fully
// merged builds from libmergedlo.
var libNames = []string{"libsofficeapp", "libmergedlo"}

// Hook symbol names, preferred form first. The two argument form
// accepts a user profile URL alongside the install path.
const (
	symHook2 = "libreofficekit_hook_2"
	symHook  = "libreofficekit_hook"
)

// libExt returns the shared library extension for this platform.
func libExt() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// HasKitLibrary reports whether dir contains a kit library candidate.
// It checks file presence only, not loadability.
func HasKitLibrary(dir string) bool {
	for _, name := range libNames {
		if _, err := os.Stat(filepath.Join(dir, name+libExt())); err == nil {
			return true
		}
	}
	return false
}

// openLibrary loads the kit library found under programPath. The
// library stays mapped for the life of the process, LibreOffice does
// not support being unloaded.
func openLibrary(programPath string) (uintptr, error) {
	var lastErr error
	for _, name := range libNames {
		full := filepath.Join(programPath, name+libExt())
		if _, err := os.Stat(full); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			continue
		}
		handle, err := purego.Dlopen(full, 0x1) // RTLD_LAZY
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	return 0, errors.New(errors.PhaseInit, errors.KindUnknownInit).
		Detail("no loadable kit library under %s", programPath).
		Cause(lastErr).
		Build()
}

// initKit resolves the kit hook from the loaded library and calls it,
// returning the kit pointer. profileURL may be empty, leaving profile
// selection to the engine. A non-empty profileURL requires the two
// argument hook.
func initKit(handle uintptr, programPath, profileURL string) (uintptr, error) {
	pathPtr, pathBuf, err := cString("install path", programPath)
	if err != nil {
		return 0, err
	}

	var kit uintptr
	if hook2, derr := purego.Dlsym(handle, symHook2); derr == nil && hook2 != 0 {
		var profilePtr uintptr
		var profileBuf []byte
		if profileURL != "" {
			profilePtr, profileBuf, err = cString("profile url", profileURL)
			if err != nil {
				return 0, err
			}
		}
		kit, _, _ = purego.SyscallN(hook2, pathPtr, profilePtr)
		runtime.KeepAlive(profileBuf)
	} else {
		if profileURL != "" {
			return 0, errors.New(errors.PhaseInit, errors.KindMissingFunction).
				Function(symHook2).
				Detail("profile isolation needs the two argument hook").
				Build()
		}
		hook, derr := purego.Dlsym(handle, symHook)
		if derr != nil || hook == 0 {
			return 0, errors.New(errors.PhaseInit, errors.KindMissingFunction).
				Function(symHook).
				Cause(derr).
				Detail("kit entry point not exported").
				Build()
		}
		kit, _, _ = purego.SyscallN(hook, pathPtr)
	}
	runtime.KeepAlive(pathBuf)

	if kit == 0 {
		return 0, errors.UnknownInit()
	}
	return kit, nil
}

// InitOffice loads the native kit library under programPath and
// initializes an office instance rooted there. programPath is the
// LibreOffice program directory, for example
// /usr/lib/libreoffice/program. profileURL optionally points the engine
// at a dedicated user profile in file URL or vnd.sun.star.pathname
// form.
//
// InitOffice does not claim the office gate. Callers that own a full
// instance lifecycle claim it first and release it if this fails.
func InitOffice(programPath, profileURL string) (*OfficeRaw, error) {
	handle, err := openLibrary(programPath)
	if err != nil {
		return nil, err
	}
	kit, err := initKit(handle, programPath, profileURL)
	if err != nil {
		return nil, err
	}
	return FromKit(kit)
}
