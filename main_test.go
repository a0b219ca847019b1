package main

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	loc := time.UTC

	cases := []struct {
		in       string
		endOfDay bool
		want     int64
		wantErr  bool
	}{
		{"", false, 0, false},
		{"1700000000", false, 1700000000, false},
		{"2023/11/14", false, 1699920000, false},
		{"2023/11/14", true, 1699920000 + 86399, false},
		{"14-11-2023", false, 0, true},
	}
	for _, c := range cases {
		got, err := parseDate(c.in, loc, c.endOfDay)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseDate(%q) accepted", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDate(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseDate(%q, endOfDay=%v) = %d, want %d", c.in, c.endOfDay, got, c.want)
		}
	}
}

func TestParseRange(t *testing.T) {
	loc := time.UTC

	from, to, limit, err := parseRange("1700000000,1700003600,25", loc)
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	if from != 1700000000 || to != 1700003600 || limit != 25 {
		t.Errorf("got %d, %d, %d", from, to, limit)
	}

	from, to, limit, err = parseRange("2023/11/14,2023/11/14", loc)
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	if from != 1699920000 || to != 1699920000+86399 || limit != 0 {
		t.Errorf("got %d, %d, %d (end date must cover the whole day)", from, to, limit)
	}

	if _, _, _, err := parseRange("1700000000", loc); err == nil {
		t.Error("single value accepted as range")
	}
	if _, _, _, err := parseRange("a,b", loc); err == nil {
		t.Error("garbage dates accepted")
	}
}
