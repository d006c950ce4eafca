package utils

import "testing"

func TestMinutesToHours(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{59, "59m"},
		{60, "1h 0m"},
		{90, "1h 30m"},
		{125, "2h 5m"},
		{480, "8h 0m"},
	}
	for _, tc := range cases {
		if got := MinutesToHours(tc.minutes); got != tc.want {
			t.Fatalf("MinutesToHours(%d): want=%q got=%q", tc.minutes, tc.want, got)
		}
	}
}
