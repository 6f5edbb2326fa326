// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package request

import "testing"

func TestFormatTimeLeft(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"minutes and seconds", "01:30", "1 min. 30 sec."},
		{"hours minutes seconds", "02:15:45", "2 hr. 15 min."},
		{"zero hours collapses", "00:45:10", "45 min. 10 sec."},
		{"days and hours", "1:05:00:00", "1 days 5 hr."},
		{"zero days collapses", "0:03:20:00", "3 hr. 20 min."},
		{"dot separators", "02.15.45", "2 hr. 15 min."},
		{"space separators", "02 15 45", "2 hr. 15 min."},
		{"single part", "45", "Unknown"},
		{"too many parts", "1:2:3:4:5", "Unknown"},
		{"non-numeric", "soon", "Unknown"},
		{"negative component", "-1:30", "Unknown"},
		{"empty string", "", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimeLeft(tt.raw); got != tt.want {
				t.Errorf("FormatTimeLeft(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
