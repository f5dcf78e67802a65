package nestmap

import "strings"

const (
	bangPrefix     = "!"
	resolvingMark  = "!"
	chunkSeparator = "."
)

// IsBangKey reports whether key is a string starting with "!".
func IsBangKey(key any) bool {
	s, ok := key.(string)
	return ok && strings.HasPrefix(s, bangPrefix)
}

// IsResolvingKey reports whether key is a string ending with "!", the marker
// a LayeredView uses to chase bang-string values.
func IsResolvingKey(key any) bool {
	s, ok := key.(string)
	return ok && strings.HasSuffix(s, resolvingMark)
}

// splitKey returns the segments of a bang-key.
func splitKey(key string) []string {
	return strings.Split(strings.TrimPrefix(key, bangPrefix), chunkSeparator)
}

func joinChunks(chunks []string) string {
	return bangPrefix + strings.Join(chunks, chunkSeparator)
}

// joinSubkey appends subkey to a parent key. Top-level entries keep their
// plain key; anything nested becomes a bang-key.
func joinSubkey(key, subkey string) string {
	if key == "" {
		return subkey
	}
	return bangPrefix + strings.TrimPrefix(key, bangPrefix) + chunkSeparator + subkey
}

// trimResolvingMark strips a trailing resolving marker and reports whether
// one was present. Only bang-keys carry the marker; a lone "!" is left
// untouched.
func trimResolvingMark(key string) (string, bool) {
	if len(key) > 1 && IsBangKey(key) && strings.HasSuffix(key, resolvingMark) {
		return strings.TrimSuffix(key, resolvingMark), true
	}
	return key, false
}
