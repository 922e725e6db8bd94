// Package alerts fetches active hazard alerts for a coordinate and fans out
// push notifications for them.
package alerts

import "strings"

// Alert is an externally sourced hazard alert. It is read-only to this
// service and never persisted by it.
type Alert struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	Type        string   `json:"type"`
	Areas       []string `json:"areas"`
	ValidUntil  string   `json:"validUntil"`
}

// NotificationPayload is built 1:1 from an Alert and exists only for the
// duration of a dispatch call.
type NotificationPayload struct {
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Icon    string      `json:"icon"`
	Badge   string      `json:"badge"`
	Data    PayloadData `json:"data"`
}

// PayloadData carries the alert attributes a client needs to render and
// deduplicate the notification.
type PayloadData struct {
	AlertID    string   `json:"alertId"`
	Severity   string   `json:"severity"`
	Type       string   `json:"type"`
	Areas      []string `json:"areas"`
	ValidUntil string   `json:"validUntil"`
}

// SeverityRank orders severity labels for threshold comparisons. Unknown
// labels rank lowest.
func SeverityRank(severity string) int {
	switch strings.ToLower(severity) {
	case "minor", "advisory":
		return 1
	case "moderate":
		return 2
	case "severe":
		return 3
	case "extreme":
		return 4
	default:
		return 0
	}
}

// payloadFor builds the notification payload for one alert.
func payloadFor(a Alert) NotificationPayload {
	return NotificationPayload{
		Title:   a.Title,
		Message: a.Description,
		Icon:    "/icons/alert-icon.png",
		Badge:   "/icons/alert-badge.png",
		Data: PayloadData{
			AlertID:    a.ID,
			Severity:   a.Severity,
			Type:       a.Type,
			Areas:      a.Areas,
			ValidUntil: a.ValidUntil,
		},
	}
}
