// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package request

import (
	"fmt"
	"strconv"
	"strings"
)

// timeLeftUnknown is reported when the queue record lacks a remaining
// time or reports one in a shape we cannot parse.
const timeLeftUnknown = "Unknown"

// FormatTimeLeft renders a service-reported remaining-time string into a
// human-readable two-unit bucket, collapsing to the coarser pair when
// the leading unit is zero:
//
//	"01:30"       -> "1 min. 30 sec."
//	"02:15:45"    -> "2 hr. 15 min."
//	"00:45:10"    -> "45 min. 10 sec."
//	"1:05:00:00"  -> "1 days 5 hr."
//
// Separators ':', '.', and ' ' are accepted; anything unparseable
// yields "Unknown" rather than failing the reconciliation.
func FormatTimeLeft(raw string) string {
	normalized := strings.NewReplacer(" ", ":", ".", ":").Replace(raw)
	parts := strings.Split(normalized, ":")

	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return timeLeftUnknown
		}
		values = append(values, v)
	}

	switch len(values) {
	case 2: // MM:SS
		return fmt.Sprintf("%d min. %d sec.", values[0], values[1])

	case 3: // HH:MM:SS
		hours, minutes, seconds := values[0], values[1], values[2]
		if hours == 0 {
			return fmt.Sprintf("%d min. %d sec.", minutes, seconds)
		}
		return fmt.Sprintf("%d hr. %d min.", hours, minutes)

	case 4: // D:HH:MM:SS
		days, hours, minutes := values[0], values[1], values[2]
		if days == 0 {
			return fmt.Sprintf("%d hr. %d min.", hours, minutes)
		}
		return fmt.Sprintf("%d days %d hr.", days, hours)

	default:
		return timeLeftUnknown
	}
}
