package monitor

import "testing"

func TestAvailabilityChanged(t *testing.T) {
	yes := true
	no := false

	cases := []struct {
		name     string
		last     *bool
		observed bool
		want     bool
	}{
		{name: "never observed counts as changed", last: nil, observed: true, want: true},
		{name: "never observed and unavailable", last: nil, observed: false, want: true},
		{name: "flip to unavailable", last: &yes, observed: false, want: true},
		{name: "flip to available", last: &no, observed: true, want: true},
		{name: "stable available", last: &yes, observed: true, want: false},
		{name: "stable unavailable", last: &no, observed: false, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := availabilityChanged(tc.last, tc.observed); got != tc.want {
				t.Fatalf("availabilityChanged(%v, %v) = %v, want %v", tc.last, tc.observed, got, tc.want)
			}
		})
	}
}
