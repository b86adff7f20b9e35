package analytics

import (
	"sort"
	"strings"

	"github.com/qrdeck/qrdeck/internal/model"
)

// Unknown is the bucket for scans without location or user agent.
const Unknown = "Unknown"

// Count is one row of a breakdown table.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary groups scans by where and on what they were made.
type Summary struct {
	Total     int     `json:"total"`
	Countries []Count `json:"countries"`
	Devices   []Count `json:"devices"`
}

// Breakdown counts events by country and by device family.
// Rows are ordered by count, then label.
func Breakdown(events []model.ScanEvent) Summary {
	countries := make(map[string]int)
	devices := make(map[string]int)
	for _, e := range events {
		country := Unknown
		if e.Location != nil && strings.TrimSpace(e.Location.Country) != "" {
			country = strings.TrimSpace(e.Location.Country)
		}
		countries[country]++
		devices[DeviceFamily(e.UserAgent)]++
	}

	return Summary{
		Total:     len(events),
		Countries: sortedCounts(countries),
		Devices:   sortedCounts(devices),
	}
}

// deviceMarkers is checked in order; the first hit wins.
var deviceMarkers = []struct {
	marker string
	family string
}{
	{"ipad", "iPad"},
	{"iphone", "iPhone"},
	{"android", "Android"},
	{"windows", "Windows"},
	{"macintosh", "Mac"},
	{"mac os", "Mac"},
	{"cros", "ChromeOS"},
	{"linux", "Linux"},
	{"bot", "Bot"},
	{"curl", "Bot"},
}

// DeviceFamily reduces a User-Agent header to a coarse device family.
func DeviceFamily(userAgent string) string {
	ua := strings.ToLower(userAgent)
	if strings.TrimSpace(ua) == "" {
		return Unknown
	}
	for _, m := range deviceMarkers {
		if strings.Contains(ua, m.marker) {
			return m.family
		}
	}
	return "Other"
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
