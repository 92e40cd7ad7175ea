// Command libsassafras is the C shared library of sassafras. Build it with
//
//	go build -buildmode=c-shared -o libsassafras.so ./cmd/libsassafras
//
// The exported functions carry the libsass names. Objects cross the boundary
// as uintptr_t handles that are checked on every call; misuse aborts the
// process with a handle contract violation. Strings passed in are copied and
// remain owned by the caller. Strings returned by getters are owned by the
// library and stay valid until the object they were read from is mutated,
// compiled or deleted. Strings returned by take, find and copy functions are
// owned by the caller and released with sass_free_memory.
//
// The library reads its settings from the environment when first used:
// SASSAFRAS_LOG_LEVEL (or LOG_LEVEL) sets the log level, SASSAFRAS_ENGINE
// names a WASI engine module and SASSAFRAS_CACHE a compile cache database.
package main

import "C"

func main() {}
