// Package namekey interns strings into small integer keys.
package namekey

import "strings"

// Key is an interned name. The zero Key is reserved for "no name".
type Key uint32

// None is the key of the empty name.
const None Key = 0

// Interner assigns stable keys to names. It is not safe for concurrent use.
type Interner struct {
	keys  map[string]Key
	names []string
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{
		keys:  make(map[string]Key),
		names: []string{""},
	}
}

// Key returns the key for name, allocating one on first use.
// Keys are case-sensitive. The empty name maps to None.
func (in *Interner) Key(name string) Key {
	if name == "" {
		return None
	}
	if k, ok := in.keys[name]; ok {
		return k
	}
	k := Key(len(in.names))
	in.keys[name] = k
	in.names = append(in.names, name)
	return k
}

// LowercaseKey returns the key of the lowercased name. Bone and
// sub-object names are matched this way.
func (in *Interner) LowercaseKey(name string) Key {
	return in.Key(strings.ToLower(name))
}

// Lookup returns the key for name without allocating.
func (in *Interner) Lookup(name string) (Key, bool) {
	if name == "" {
		return None, true
	}
	k, ok := in.keys[name]
	return k, ok
}

// Name returns the interned string for k, or "" if k is unknown.
func (in *Interner) Name(k Key) string {
	if int(k) >= len(in.names) {
		return ""
	}
	return in.names[k]
}

// Len returns the number of interned names, excluding None.
func (in *Interner) Len() int {
	return len(in.names) - 1
}
