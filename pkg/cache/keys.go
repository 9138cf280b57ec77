package cache

import (
	"encoding/hex"
	"strconv"
	"strings"

	"lukechampine.com/blake3"
)

// Keyer generates cache keys.
type Keyer interface {
	// RecordsKey identifies the window [skip, skip+limit) of a record source.
	// A limit of zero means the window extends to the end of the log.
	RecordsKey(source string, skip, limit int) string

	// RefsKey identifies the reference list of a record source.
	RefsKey(source string) string
}

// Digest returns the hex 256-bit BLAKE3 hash of parts joined by NUL bytes.
// Joining with a byte that cannot occur in paths or refs keeps ("ab", "c")
// and ("a", "bc") apart.
func Digest(parts ...string) string {
	h := blake3.New(32, nil)
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DefaultKeyer produces keys of the form "kind:digest".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RecordsKey implements Keyer.
func (DefaultKeyer) RecordsKey(source string, skip, limit int) string {
	return "records:" + Digest(source, strconv.Itoa(skip), strconv.Itoa(limit))
}

// RefsKey implements Keyer.
func (DefaultKeyer) RefsKey(source string) string {
	return "refs:" + Digest(source)
}

// ScopedKeyer namespaces the keys of another Keyer. Servers with different
// repository roots use it to share one Redis or MongoDB cache without their
// sources colliding.
type ScopedKeyer struct {
	Inner Keyer
	Scope string
}

// NewScopedKeyer scopes inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, scope string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return ScopedKeyer{Inner: inner, Scope: scope}
}

// RecordsKey implements Keyer.
func (k ScopedKeyer) RecordsKey(source string, skip, limit int) string {
	return k.scoped(k.Inner.RecordsKey(source, skip, limit))
}

// RefsKey implements Keyer.
func (k ScopedKeyer) RefsKey(source string) string {
	return k.scoped(k.Inner.RefsKey(source))
}

func (k ScopedKeyer) scoped(key string) string {
	var b strings.Builder
	b.Grow(len(k.Scope) + len(key))
	b.WriteString(k.Scope)
	b.WriteString(key)
	return b.String()
}
