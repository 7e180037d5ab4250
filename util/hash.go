package labutil

import (
	"fmt"
	"hash/fnv"
)

// Convenience function creating FNV128 hash from an input value.
func Fnv128(input ...any) string {
	h := fnv.New128()
	// Ignore errors because they are never returned in this case.
	for _, i := range input {
		_, _ = h.Write([]byte(fmt.Sprintf("%+v", i)))
	}
	bs := h.Sum(nil)
	return fmt.Sprintf("%x", bs)
}
