package lok

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jacobtread/libreofficekit/errors"
)

// Version is an engine version of the form "major.minor", ordered by
// major then minor. It gates calls to table functions that older
// engine builds do not provide.
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses a "major.minor" string. Formatting the result
// yields the input string again, so components with leading zeros or
// signs are rejected rather than silently normalized.
func ParseVersion(s string) (Version, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return Version{}, errors.New(errors.PhaseParse, errors.KindMalformedMetadata).
			Value(s).
			Detail("version %q has no major.minor separator", s).
			Build()
	}
	ma, err := parseVersionPart("major", major, s)
	if err != nil {
		return Version{}, err
	}
	mi, err := parseVersionPart("minor", minor, s)
	if err != nil {
		return Version{}, err
	}
	return Version{Major: ma, Minor: mi}, nil
}

func parseVersionPart(what, part, whole string) (int, error) {
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, errors.New(errors.PhaseParse, errors.KindMalformedMetadata).
			Value(whole).
			Cause(err).
			Detail("%s component %q of version %q is not a number", what, part, whole).
			Build()
	}
	if n < 0 || strconv.Itoa(n) != part {
		return 0, errors.New(errors.PhaseParse, errors.KindMalformedMetadata).
			Value(whole).
			Detail("%s component %q of version %q does not round-trip", what, part, whole).
			Build()
	}
	return n, nil
}

func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// AtLeast reports whether v is the same as or newer than o.
func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	return v.Minor >= o.Minor
}

// VersionInfo is the engine's build identification, decoded from the
// JSON text the getVersionInfo table function returns.
type VersionInfo struct {
	ProductName      string `json:"ProductName"`
	ProductVersion   string `json:"ProductVersion"`
	ProductExtension string `json:"ProductExtension"`
	BuildID          string `json:"BuildId"`
}

// VersionInfo retrieves and decodes the engine's build identification.
// Requires LibreOffice 6.0 or newer.
func (o *Office) VersionInfo() (VersionInfo, error) {
	raw, err := o.engine()
	if err != nil {
		return VersionInfo{}, err
	}
	body, err := raw.GetVersionInfo()
	if err != nil {
		return VersionInfo{}, err
	}
	if !utf8.ValidString(body) {
		return VersionInfo{}, errors.InvalidUTF8("version info", []byte(body))
	}
	var info VersionInfo
	if err := json.Unmarshal([]byte(body), &info); err != nil {
		return VersionInfo{}, errors.MalformedMetadata("version info", err)
	}
	return info, nil
}

// Version returns the installed engine version parsed from the product
// version string. The result is cached for the lifetime of the office
// instance.
func (o *Office) Version() (Version, error) {
	if _, err := o.engine(); err != nil {
		return Version{}, err
	}
	st := o.state
	if st.versionKnown {
		return st.version, nil
	}
	info, err := o.VersionInfo()
	if err != nil {
		return Version{}, err
	}
	v, err := ParseVersion(info.ProductVersion)
	if err != nil {
		return Version{}, err
	}
	st.version, st.versionKnown = v, true
	return v, nil
}
