package utils

import (
	"fmt"
	"time"
)

// FormatEpoch renders a DSM timestamp in seconds. Zero means the service did
// not report one.
func FormatEpoch(epochTime int64) string {
	if epochTime == 0 {
		return "-"
	}
	return time.Unix(epochTime, 0).Format("2006-01-02 15:04:05")
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
