package sys

import (
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/jacobtread/libreofficekit/errors"
)

// maxCString bounds goString scans so a missing terminator cannot walk
// arbitrarily far into unmapped memory.
const maxCString = 1 << 20

// cString copies s into a NUL terminated buffer. The returned pointer
// aliases the returned slice, so the caller must keep the slice alive
// with runtime.KeepAlive until the native call has returned. what names
// the value in the error when s carries an embedded NUL.
func cString(what, s string) (uintptr, []byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return 0, nil, errors.NulByte(what)
	}
	buf := append([]byte(s), 0)
	return uintptr(unsafe.Pointer(&buf[0])), buf, nil
}

// goString copies the NUL terminated C string at ptr into a Go string.
// A zero pointer yields the empty string.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	length := 0
	for length < maxCString {
		if *(*byte)(unsafe.Pointer(ptr + uintptr(length))) == 0 {
			break
		}
		length++
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), length))
}

// lossyUTF8 makes s valid UTF-8 by replacing undecodable bytes. Engine
// error strings pass through here since their encoding is unspecified.
func lossyUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}
