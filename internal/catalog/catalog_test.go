package catalog

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantName   string
		wantDim    int
		wantErr    bool
	}{
		{"canonical minilm", "mini_lm_v2", "mini_lm_v2", 384, false},
		{"alias mini_lm", "mini_lm", "mini_lm_v2", 384, false},
		{"alias bert", "bert", "mini_lm_v2", 384, false},
		{"uppercase", "MINI_LM_V2", "mini_lm_v2", 384, false},
		{"jina", "jina", "jina", 768, false},
		{"unknown", "gpt-9", "", 0, true},
		{"empty", "", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Resolve(tt.identifier)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Resolve(%q) succeeded, want error", tt.identifier)
				}
				if !errors.Is(err, ErrUnknownModel) {
					t.Errorf("Resolve(%q) error = %v, want ErrUnknownModel", tt.identifier, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.identifier, err)
			}
			if spec.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", spec.Name, tt.wantName)
			}
			if spec.Dimension != tt.wantDim {
				t.Errorf("Dimension = %d, want %d", spec.Dimension, tt.wantDim)
			}
			if spec.Repo == "" || spec.EnvVar == "" || spec.MaxTokens <= 0 {
				t.Errorf("incomplete spec: %+v", spec)
			}
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want 2 entries", names)
	}
	for _, n := range names {
		if _, err := Resolve(n); err != nil {
			t.Errorf("Resolve(%q) failed for listed name: %v", n, err)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0].Dimension = 1
	b := All()
	if b[0].Dimension == 1 {
		t.Error("All() does not return a copy")
	}
}
