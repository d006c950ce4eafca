package utils

import "fmt"

// MinutesToHours renders a minute count the way the dashboards show it:
// 90 -> "1h 30m", 45 -> "45m", 0 -> "0m".
func MinutesToHours(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
