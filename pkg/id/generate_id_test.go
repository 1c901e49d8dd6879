package id

import (
	"regexp"
	"testing"
)

func TestGenerators(t *testing.T) {
	tests := []struct {
		name string
		gen  func() string
		re   *regexp.Regexp
	}{
		{"facility and entity ids", NewID32, regexp.MustCompile(`^[a-f0-9]{32}$`)},
		{"display account numbers", NewAccountNumber, regexp.MustCompile(`^[1-9][0-9]{9}$`)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			const n = 300
			seen := make(map[string]bool, n)
			dups := 0
			for i := 0; i < n; i++ {
				v := tt.gen()
				if !tt.re.MatchString(v) {
					t.Fatalf("%q does not match %s", v, tt.re)
				}
				if seen[v] {
					dups++
				}
				seen[v] = true
			}
			// 9e9 account numbers make a collision in 300 draws vanishingly rare; ids never collide.
			if dups > 1 {
				t.Fatalf("%d duplicates in %d draws", dups, n)
			}
		})
	}
}
