package id

import "sync"

// Symbol is a comparable handle returned by an Interner.
// Two Symbols are equal iff they were interned from equal strings.
type Symbol int32

// Interner de-duplicates strings (artifact class tags, mount
// prefixes) behind small comparable handles.
// The zero value is ready to use.
type Interner struct {
	mu   sync.Mutex
	toID map[string]Symbol
	strs []string
}

// Intern returns the Symbol for s, assigning a new one on first
// use.
func (in *Interner) Intern(s string) Symbol {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.toID == nil {
		in.toID = make(map[string]Symbol)
	}
	if sym, ok := in.toID[s]; ok {
		return sym
	}
	sym := Symbol(len(in.strs))
	in.strs = append(in.strs, s)
	in.toID[s] = sym
	return sym
}

// String returns the string that sym was interned from.
// It panics if sym was not produced by this Interner.
func (in *Interner) String(sym Symbol) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.strs[sym]
}
