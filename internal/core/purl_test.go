package core

import "testing"

func TestParsePURL(t *testing.T) {
	tests := []struct {
		input    string
		wantType string
		wantName string
		wantVer  string
		wantErr  bool
	}{
		{"pkg:aur/yay", "aur", "yay", "", false},
		{"pkg:aur/yay@12.3.5-1", "aur", "yay", "12.3.5-1", false},
		{"pkg:aur/visual-studio-code-bin@1.90.0-1", "aur", "visual-studio-code-bin", "1.90.0-1", false},
		{"cargo/serde", "", "", "", true}, // missing pkg: prefix
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if p.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", p.Type, tt.wantType)
			}
			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
			if p.Version != tt.wantVer {
				t.Errorf("Version = %q, want %q", p.Version, tt.wantVer)
			}
		})
	}
}

func TestPackageRefFromPURL(t *testing.T) {
	ref, err := PackageRefFromPURL("pkg:aur/yay@12.3.5-1")
	if err != nil {
		t.Fatalf("PackageRefFromPURL returned error: %v", err)
	}
	if ref.Name != "yay" || ref.Version != "12.3.5-1" {
		t.Errorf("ref = %+v, want Name=yay Version=12.3.5-1", ref)
	}
	if ref.Source.Kind != SourceAUR {
		t.Errorf("ref.Source.Kind = %v, want SourceAUR", ref.Source.Kind)
	}
}

func TestPackageRefFromPURL_RejectsOtherTypes(t *testing.T) {
	if _, err := PackageRefFromPURL("pkg:cargo/serde@1.0.0"); err == nil {
		t.Error("expected error for non-aur PURL type")
	}
}

func TestPURLFor(t *testing.T) {
	tests := []struct {
		ref  PackageRef
		want string
	}{
		{PackageRef{Name: "yay"}, "pkg:aur/yay"},
		{PackageRef{Name: "yay", Version: "12.3.5-1"}, "pkg:aur/yay@12.3.5-1"},
	}
	for _, tt := range tests {
		if got := PURLFor(tt.ref); got != tt.want {
			t.Errorf("PURLFor(%+v) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
