package storage

import "strings"

// IsABIMismatch classifies an open failure as the native-binary
// incompatibility case of §4.4/§7 (StoreAbiMismatch): the facade
// surfaces this as actionable guidance and never retries.
func IsABIMismatch(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "incompatible library version") ||
		strings.Contains(s, "wrong ELF class") ||
		strings.Contains(s, "bad ELF") ||
		strings.Contains(s, "cannot open shared object file")
}
