package presence

import (
	"testing"
	"time"
)

func TestClassifyNotSharing(t *testing.T) {
	now := time.Now()

	// not_sharing gana sin importar la antigüedad del timestamp
	ages := []time.Duration{0, time.Minute, time.Hour, 24 * time.Hour}
	for _, age := range ages {
		if got := Classify(false, now.Add(-age), now); got != StatusNotSharing {
			t.Errorf("Classify(false, age=%v) = %q, expected not_sharing", age, got)
		}
	}
}

func TestClassifyThresholds(t *testing.T) {
	now := time.Now()

	cases := []struct {
		age  time.Duration
		want Status
	}{
		{0, StatusOnline},
		{4*time.Minute + 59*time.Second, StatusOnline},
		{5 * time.Minute, StatusRecentlyActive},
		{29*time.Minute + 59*time.Second, StatusRecentlyActive},
		{30 * time.Minute, StatusOffline},
		{31 * time.Minute, StatusOffline},
		{12 * time.Hour, StatusOffline},
	}

	for _, tc := range cases {
		if got := Classify(true, now.Add(-tc.age), now); got != tc.want {
			t.Errorf("Classify(true, age=%v) = %q, expected %q", tc.age, got, tc.want)
		}
	}
}

func TestStatusColors(t *testing.T) {
	cases := map[Status]string{
		StatusOnline:         "green",
		StatusRecentlyActive: "amber",
		StatusOffline:        "gray",
		StatusNotSharing:     "slate",
	}
	for status, want := range cases {
		if got := status.Color(); got != want {
			t.Errorf("%q.Color() = %q, expected %q", status, got, want)
		}
	}
}
