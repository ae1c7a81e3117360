package stage

import "testing"

func TestReadyNoDependencies(t *testing.T) {
	s := Stage{Name: "build"}
	if !s.Ready(nil) {
		t.Error("stage without dependencies should always be ready")
	}
}

func TestReady(t *testing.T) {
	s := Stage{Name: "test", DependsOn: []string{"build", "lint"}}

	tests := []struct {
		name string
		done map[string]bool
		want bool
	}{
		{"none satisfied", map[string]bool{}, false},
		{"one satisfied", map[string]bool{"build": true}, false},
		{"all satisfied", map[string]bool{"build": true, "lint": true}, true},
		{"false entry does not satisfy", map[string]bool{"build": true, "lint": false}, false},
		{"unrelated stages ignored", map[string]bool{"build": true, "lint": true, "docs": true}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Ready(tc.done); got != tc.want {
				t.Errorf("Ready(%v) = %v, want %v", tc.done, got, tc.want)
			}
		})
	}
}
