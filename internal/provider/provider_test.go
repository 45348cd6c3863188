package provider

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{in: "careem", want: Careem},
		{in: "deliveroo", want: Deliveroo},
		{in: "talabat", want: Talabat},
		{in: "jahez", want: Jahez},
		{in: "ubereats", wantErr: true},
		{in: "Careem", wantErr: true}, // route segments are lowercase
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) error = nil, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAll(t *testing.T) {
	all := All()
	if len(all) != 4 {
		t.Fatalf("All() returned %d providers, want 4", len(all))
	}
	for _, p := range all {
		if _, err := Parse(p.String()); err != nil {
			t.Errorf("All() includes %q which does not round-trip through Parse", p)
		}
	}
}
