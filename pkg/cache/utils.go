package cache

import "fmt"

// Key joins a prefix and id into a cache key.
func Key(prefix, id string) string {
	return prefix + ":" + id
}

// KeyWith builds a cache key from a prefix and any number of parts.
func KeyWith(prefix string, parts ...interface{}) string {
	key := prefix
	for _, p := range parts {
		key = fmt.Sprintf("%s:%v", key, p)
	}
	return key
}
