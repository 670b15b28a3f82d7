// Package serial implements the dual tree/stream serialization
// kernel shared by asset metadata and artifact payloads.
//
// A Tree is a navigable structured document (the on-disk YAML
// representation of asset metadata, manifests and artifact info
// files). A Stream is a flat binary encoding (the on-disk
// representation of artifact payloads and the asset database).
// Both accept a Context carrying capability handles that callers
// register before encoding/decoding begins - e.g. a shader
// reflection service a parameter block needs while decoding, or
// the artifact cache a reference type needs while resolving
// dependencies.
package serial

import "reflect"

// Context carries capability handles keyed by their static type.
// The zero value is usable.
type Context struct {
	values map[reflect.Type]any
}

// ContextPut registers v under its static type T in ctx.
func ContextPut[T any](ctx *Context, v T) {
	if ctx.values == nil {
		ctx.values = make(map[reflect.Type]any)
	}
	ctx.values[reflect.TypeOf((*T)(nil)).Elem()] = v
}

// ContextGet retrieves the value of type T previously registered
// with ContextPut. ok is false if no such value was registered.
func ContextGet[T any](ctx *Context) (v T, ok bool) {
	if ctx == nil || ctx.values == nil {
		return v, false
	}
	raw, found := ctx.values[reflect.TypeOf((*T)(nil)).Elem()]
	if !found {
		return v, false
	}
	v, ok = raw.(T)
	return v, ok
}
