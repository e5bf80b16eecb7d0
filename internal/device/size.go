package device

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with base-2 units and one decimal place,
// for example 1099511627776 -> "1.0TB".
func FormatSize(bytes uint64) string {
	size := float64(bytes)
	for _, unit := range sizeUnits {
		if size < 1024 {
			return fmt.Sprintf("%.1f%s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1fPB", size)
}

// formatGB renders a byte count in gibibytes, the unit Windows queries report.
func formatGB(bytes uint64) string {
	return fmt.Sprintf("%.1fGB", float64(bytes)/(1<<30))
}
