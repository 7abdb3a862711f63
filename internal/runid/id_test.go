package runid

import "testing"

func TestNewIsParseable(t *testing.T) {
	id := New()
	got, err := Parse(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != id {
		t.Errorf("expected %s, got %s", id, got)
	}
	if New() == id {
		t.Error("expected distinct ids")
	}
}

func TestParse(t *testing.T) {
	const canonical = "6f1c2a9e-3b7d-4c1e-9a2f-0d8e5b4c3a21"
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"canonical", canonical, false},
		{"upper case", "6F1C2A9E-3B7D-4C1E-9A2F-0D8E5B4C3A21", false},
		{"urn", "urn:uuid:" + canonical, false},
		{"padded", "  " + canonical + "\n", false},
		{"empty", "", true},
		{"garbage", "not-a-run", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != canonical {
				t.Errorf("expected %s, got %s", canonical, got)
			}
		})
	}
}

func TestOrNew(t *testing.T) {
	id, err := OrNew("")
	if err != nil || id == "" {
		t.Fatalf("expected generated id, got %q err=%v", id, err)
	}
	if _, err := OrNew("bogus"); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestParseRoute(t *testing.T) {
	const id = "6f1c2a9e-3b7d-4c1e-9a2f-0d8e5b4c3a21"
	tests := []struct {
		path       string
		wantRef    string
		wantAction string
		wantOK     bool
	}{
		{"/api/runs/current", Current, "", true},
		{"/api/runs/current/result", Current, "result", true},
		{"/api/runs/" + id, id, "", true},
		{"/api/runs/" + id + "/", id, "", true},
		{"/api/runs/", "", "", false},
		{"/api/runs/abc", "", "", false},
	}
	for _, tt := range tests {
		ref, action, ok := ParseRoute(tt.path, "/api/runs/")
		if ref != tt.wantRef || action != tt.wantAction || ok != tt.wantOK {
			t.Errorf("ParseRoute(%q) = %q, %q, %v; want %q, %q, %v",
				tt.path, ref, action, ok, tt.wantRef, tt.wantAction, tt.wantOK)
		}
	}
}
