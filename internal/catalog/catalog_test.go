package catalog

import (
	"errors"
	"testing"
)

func TestSymbolsFor(t *testing.T) {
	tests := []struct {
		kind  Kind
		count int
		first Symbol
	}{
		{KindGesture, 7, "dislike"},
		{KindShape, 8, "black_circle"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			symbols, err := SymbolsFor(tt.kind)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(symbols) != tt.count {
				t.Errorf("expected %d symbols, got %d", tt.count, len(symbols))
			}
			if symbols[0] != tt.first {
				t.Errorf("expected first symbol %q, got %q", tt.first, symbols[0])
			}
		})
	}
}

func TestSymbolsForUnknownKind(t *testing.T) {
	if _, err := SymbolsFor("colour"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSymbolsReturnsCopy(t *testing.T) {
	symbols := Gestures().Symbols()
	symbols[0] = "mutated"

	if Gestures().Symbols()[0] != "dislike" {
		t.Error("catalog was mutated through returned slice")
	}
}

func TestAssetFor(t *testing.T) {
	tests := []struct {
		symbol Symbol
		want   string
	}{
		{"peace", "/gestures/peace.png"},
		{"white_star", "/figures/white_star.png"},
	}

	for _, tt := range tests {
		got, err := AssetFor(tt.symbol)
		if err != nil {
			t.Fatalf("AssetFor(%q): unexpected error: %v", tt.symbol, err)
		}
		if got != tt.want {
			t.Errorf("AssetFor(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestAssetUnknownSymbol(t *testing.T) {
	_, err := Shapes().Asset("peace")

	var unknown *UnknownSymbolError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownSymbolError, got %v", err)
	}
	if unknown.Kind != KindShape || unknown.Symbol != "peace" {
		t.Errorf("unexpected error fields: %+v", unknown)
	}

	if _, err := AssetFor("thumbs_sideways"); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownSymbolError from AssetFor, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Gestures().Validate("like", "ok"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Gestures().Validate("like", "black_star"); err == nil {
		t.Error("expected error for shape in gesture catalog")
	}
}
