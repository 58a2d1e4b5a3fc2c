// internal/cache/key.go
package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// QueryKey derives a deterministic cache key from the input parameters of a
// composed query. Identical parameters always hash to the same key.
func QueryKey(name string, params ...string) string {
	h := fnv.New64a()
	h.Write([]byte(name))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%s:%016x", name, h.Sum64())
}

// FilterKey builds a readable key for filtered collection views, e.g.
// "employees/department=engineering".
func FilterKey(kind string, pairs ...string) string {
	if len(pairs) == 0 {
		return kind + "/all"
	}
	return kind + "/" + strings.Join(pairs, "&")
}
