package main

import "testing"

func TestRequiresAPIKey(t *testing.T) {
	tests := []struct {
		name string
		f    flags
		want bool
	}{
		{"prepare is offline", flags{mode: "prepare"}, false},
		{"cv calls the API", flags{mode: "cv"}, true},
		{"cv dry run is offline", flags{mode: "cv", dryRun: true}, false},
		{"final calls the API", flags{mode: "final"}, true},
		{"final dry run is offline", flags{mode: "final", dryRun: true}, false},
		{"eval calls the API", flags{mode: "eval"}, true},
		{"unknown mode fails on usage instead", flags{mode: "bogus"}, false},
	}

	for _, tt := range tests {
		if got := requiresAPIKey(tt.f); got != tt.want {
			t.Errorf("%s: requiresAPIKey = %v, want %v", tt.name, got, tt.want)
		}
	}
}
