// Package cstr converts between boundary strings and the values held by the
// configuration and context model.
//
// A boundary string is a byte sequence terminated by a single zero byte, as
// passed through a C-compatible interface. Decoding validates the terminator
// before the bytes are used. Decoded values keep their terminator so that
// getters can hand out a pointer into the owner's storage without allocating.
//
// Two conversions exist for every value:
//
//   - String and CString are lossless and are the only conversions used when a
//     value is written back into the configuration model.
//   - Display substitutes U+FFFD for ill-formed UTF-8 and is meant for log
//     lines and diagnostics only.
//
// Paths additionally convert to the platform's native representation. On
// byte-oriented platforms the boundary bytes are the native path. On Windows
// the bytes are read as UTF-8 and converted to UTF-16; see native_windows.go.
package cstr
