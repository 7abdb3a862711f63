// Package catalog holds the static registries of stimulus symbols shown to
// the subject: hand gestures and the black/white shape figures. Each symbol
// maps to a display asset reference served by the host page.
//
// Registries are built once at process start and are read-only afterwards,
// so a *Catalog is safe for concurrent use.
package catalog

import (
	"fmt"
	"slices"
)

// Kind identifies a symbol registry.
type Kind string

const (
	KindGesture Kind = "gesture"
	KindShape   Kind = "shape"
)

// Symbol is an opaque stimulus identifier, e.g. "peace" or "white_star".
type Symbol string

// UnknownSymbolError is returned when a symbol outside the registered set is queried.
type UnknownSymbolError struct {
	Kind   Kind
	Symbol Symbol
}

func (e *UnknownSymbolError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("unknown stimulus symbol %q", e.Symbol)
	}
	return fmt.Sprintf("unknown %s symbol %q", e.Kind, e.Symbol)
}

// Catalog is an ordered set of symbols with their asset references.
type Catalog struct {
	kind    Kind
	symbols []Symbol
	assets  map[Symbol]string
}

// Asset directories used by the host page.
const (
	gestureAssetDir = "/gestures/"
	shapeAssetDir   = "/figures/"
)

var (
	gestures = newCatalog(KindGesture, gestureAssetDir,
		"dislike", "like", "rock", "ok", "peace", "one", "palm")

	shapes = newCatalog(KindShape, shapeAssetDir,
		"black_circle", "black_square", "black_star", "black_triangle",
		"white_circle", "white_square", "white_star", "white_triangle")
)

func newCatalog(kind Kind, assetDir string, names ...Symbol) *Catalog {
	c := &Catalog{
		kind:    kind,
		symbols: names,
		assets:  make(map[Symbol]string, len(names)),
	}
	for _, s := range names {
		c.assets[s] = assetDir + string(s) + ".png"
	}
	return c
}

// Gestures returns the gesture registry.
func Gestures() *Catalog { return gestures }

// Shapes returns the shape registry.
func Shapes() *Catalog { return shapes }

// For returns the registry for kind.
func For(kind Kind) (*Catalog, error) {
	switch kind {
	case KindGesture:
		return gestures, nil
	case KindShape:
		return shapes, nil
	default:
		return nil, fmt.Errorf("unknown catalog kind %q", kind)
	}
}

// SymbolsFor returns the ordered symbol set of kind.
func SymbolsFor(kind Kind) ([]Symbol, error) {
	c, err := For(kind)
	if err != nil {
		return nil, err
	}
	return c.Symbols(), nil
}

// AssetFor resolves the asset reference of a symbol from any registry.
func AssetFor(s Symbol) (string, error) {
	for _, c := range []*Catalog{gestures, shapes} {
		if ref, ok := c.assets[s]; ok {
			return ref, nil
		}
	}
	return "", &UnknownSymbolError{Symbol: s}
}

// Kind returns the registry kind.
func (c *Catalog) Kind() Kind { return c.kind }

// Symbols returns a copy of the registered symbols in registration order.
func (c *Catalog) Symbols() []Symbol {
	return slices.Clone(c.symbols)
}

// Len returns the number of registered symbols.
func (c *Catalog) Len() int { return len(c.symbols) }

// Contains reports whether s is registered.
func (c *Catalog) Contains(s Symbol) bool {
	_, ok := c.assets[s]
	return ok
}

// Asset returns the asset reference for s.
func (c *Catalog) Asset(s Symbol) (string, error) {
	ref, ok := c.assets[s]
	if !ok {
		return "", &UnknownSymbolError{Kind: c.kind, Symbol: s}
	}
	return ref, nil
}

// Validate checks that every symbol is registered.
func (c *Catalog) Validate(symbols ...Symbol) error {
	for _, s := range symbols {
		if !c.Contains(s) {
			return &UnknownSymbolError{Kind: c.kind, Symbol: s}
		}
	}
	return nil
}
