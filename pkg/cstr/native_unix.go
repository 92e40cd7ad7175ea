//go:build !windows

package cstr

// Native is the platform path representation. On this platform paths are
// byte strings, so the boundary bytes map directly.
type Native []byte

// Native converts p to the platform representation. The result aliases p.
func (p Path) Native() (Native, error) {
	return Native(p.t.bytes()), nil
}

// PathFromNative converts a platform path back to boundary form.
func PathFromNative(n Native) (Path, error) {
	return Path{t: newTerminated(n)}, nil
}
