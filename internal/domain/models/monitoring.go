package models

import (
	"time"
)

type SourceStatus string

const (
	StatusHealthy SourceStatus = "healthy"
	StatusWarning SourceStatus = "warning"
	StatusFailing SourceStatus = "failing"
	StatusUnknown SourceStatus = "unknown"
)

// HTMLFingerprint — структурный отпечаток одного снимка страницы.
// Описывает форму разметки, а не её содержимое.
type HTMLFingerprint struct {
	DOMHash           string    `json:"domHash"`
	HeadingStructure  []string  `json:"headingStructure"` // "tag:text", не более 30 записей
	CriticalSelectors []string  `json:"criticalSelectors"`
	HTMLSize          int       `json:"htmlSize"`
	HeadingCount      int       `json:"headingCount"`
	LinkCount         int       `json:"linkCount"`
	CapturedAt        time.Time `json:"capturedAt"`
}

type ExtractionRecord struct {
	Date       string    `json:"date"` // YYYY-MM-DD
	LinksFound int       `json:"linksFound"`
	Confidence float64   `json:"confidence"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// SourceMonitoring — накопленная история извлечений по одному источнику.
// Создаётся лениво при первом извлечении, автоматически не удаляется.
type SourceMonitoring struct {
	SourceURL           string             `json:"sourceUrl"`
	Fingerprint         *HTMLFingerprint   `json:"fingerprint,omitempty"`
	History             []ExtractionRecord `json:"history"`
	LastCheck           time.Time          `json:"lastCheck"`
	Status              SourceStatus       `json:"status"`
	ConsecutiveFailures int                `json:"consecutiveFailures"`
}
