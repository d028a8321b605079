package enumcodec

import (
	"errors"
	"fmt"
	"unicode"
)

// unknownName marks the member that acts as the decode fallback.
const unknownName = "unknown"

var (
	// ErrUnmappedValue is returned by Encode for a value with no name and no fallback.
	ErrUnmappedValue = errors.New("enumcodec: unmapped value")
	// ErrUnknownName is returned by Decode for a name with no value.
	ErrUnknownName = errors.New("enumcodec: unknown name")
)

// Member declares one enumeration value under its declared identifier.
type Member[T comparable] struct {
	Value T
	Name  string
}

// Codec is a bidirectional mapping between an enumeration and its canonical
// lowerCamel wire names. A member named "Unknown" becomes the fallback: it is
// kept out of the maps, and if its value aliases a named member the fallback
// encodes to that member's real name instead of the literal "unknown".
type Codec[T comparable] struct {
	byValue       map[T]string
	byName        map[string]T
	fallbackName  string
	fallbackValue T
	hasFallback   bool
}

// New builds a codec from the declared members. Call once per enumeration and
// keep the result in a package-level var.
func New[T comparable](members []Member[T]) *Codec[T] {
	c := &Codec[T]{
		byValue: make(map[T]string, len(members)),
		byName:  make(map[string]T, len(members)),
	}
	for _, m := range members {
		name := LowerCamel(m.Name)
		if name == unknownName {
			c.fallbackName = unknownName
			c.fallbackValue = m.Value
			c.hasFallback = true
			continue
		}
		c.byName[name] = m.Value
		c.byValue[m.Value] = name
	}
	if c.hasFallback {
		if alias, ok := c.byValue[c.fallbackValue]; ok {
			c.fallbackName = alias
		}
	}
	return c
}

// Encode returns the canonical name for v, or the fallback name when v is
// unmapped and a fallback exists.
func (c *Codec[T]) Encode(v T) (string, error) {
	if name, ok := c.byValue[v]; ok {
		return name, nil
	}
	if c.hasFallback {
		return c.fallbackName, nil
	}
	return "", fmt.Errorf("%w: %v", ErrUnmappedValue, v)
}

// Decode is the strict inverse of Encode: unknown names fail.
func (c *Codec[T]) Decode(name string) (T, error) {
	if v, ok := c.byName[name]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %q", ErrUnknownName, name)
}

// TryDecode never fails. Empty input reports not-ok; an unmapped name yields
// the fallback value only when allowFallback is set.
func (c *Codec[T]) TryDecode(name string, allowFallback bool) (T, bool) {
	if name == "" {
		var zero T
		return zero, false
	}
	if v, ok := c.byName[name]; ok {
		return v, true
	}
	if allowFallback && c.hasFallback {
		return c.fallbackValue, true
	}
	var zero T
	return zero, false
}

// Fallback reports the fallback value, if the enumeration declared one.
func (c *Codec[T]) Fallback() (T, bool) {
	return c.fallbackValue, c.hasFallback
}

// LowerCamel converts a declared Go identifier to its lowerCamel wire form:
// the leading run of upper-case letters is lowered, stopping before an upper
// that starts a new word ("OnCall" -> "onCall", "HN" -> "hn").
func LowerCamel(s string) string {
	r := []rune(s)
	if len(r) == 0 || !unicode.IsUpper(r[0]) {
		return s
	}
	for i := 0; i < len(r) && unicode.IsUpper(r[i]); i++ {
		if i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) {
			break
		}
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}
