// Package urls converts local paths and remote URIs into the document
// addresses the engine accepts.
//
// The engine resolves documents by URL only. Local files must arrive as
// file URLs with absolute, percent encoded paths, while remote
// documents keep their original URI form untouched. DocURL values are
// validated at construction so the layers below can pass them along
// without their own checks.
package urls

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jacobtread/libreofficekit/errors"
)

// DocURL is a validated document address.
type DocURL struct {
	value string
}

// String returns the address in the form handed to the engine.
func (u DocURL) String() string {
	return u.value
}

func newDocURL(value string) (DocURL, error) {
	if strings.IndexByte(value, 0) >= 0 {
		return DocURL{}, errors.New(errors.PhaseURL, errors.KindInvalidInput).
			Detail("document address contains an embedded NUL byte").
			Build()
	}
	return DocURL{value: value}, nil
}

// FromRelativePath resolves a local path against the working directory
// and returns its file URL. The file must exist, resolution follows
// symlinks the way the engine will.
func FromRelativePath(path string) (DocURL, error) {
	abs, err := filepath.Abs(path)
	if err == nil {
		abs, err = filepath.EvalSymlinks(abs)
	}
	if err != nil {
		return DocURL{}, errors.New(errors.PhaseURL, errors.KindInvalidInput).
			Detail("cannot resolve %s, does the file exist", path).
			Cause(err).
			Build()
	}
	return FromAbsolutePath(abs)
}

// FromAbsolutePath returns the file URL for an absolute local path. The
// path does not need to exist but must be absolute, the engine rejects
// anything else.
func FromAbsolutePath(path string) (DocURL, error) {
	if !filepath.IsAbs(path) {
		return DocURL{}, errors.New(errors.PhaseURL, errors.KindInvalidInput).
			Detail("the file path %s must be absolute", path).
			Value(path).
			Build()
	}
	fileURL := url.URL{Scheme: "file", Path: filepath.Clean(path)}
	return newDocURL(fileURL.String())
}

// FromRemoteURI validates uri and keeps it verbatim. The engine speaks
// schemes of its own, so only basic URI shape is enforced here.
func FromRemoteURI(uri string) (DocURL, error) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" {
		return DocURL{}, errors.New(errors.PhaseURL, errors.KindInvalidInput).
			Detail("cannot parse uri %s", uri).
			Cause(err).
			Build()
	}
	return newDocURL(uri)
}

// Parse accepts what a command line hands over. Anything with a scheme
// is treated as a remote URI, absolute paths convert directly and
// everything else resolves as a relative path.
func Parse(value string) (DocURL, error) {
	if parsed, err := url.Parse(value); err == nil && parsed.Scheme != "" {
		return FromRemoteURI(value)
	}
	if filepath.IsAbs(value) {
		return FromAbsolutePath(value)
	}
	return FromRelativePath(value)
}
