package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type AlertType string

const (
	AlertZeroLinks           AlertType = "zero_links"
	AlertLowConfidence       AlertType = "low_confidence"
	AlertConsecutiveFailures AlertType = "consecutive_failures"
	AlertLinkCountDrop       AlertType = "link_count_drop"
	AlertStructureChanged    AlertType = "structure_changed"
)

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// AlertDetails — типизированная нагрузка алерта, свой вариант на каждый тип.
type AlertDetails interface {
	AlertType() AlertType
}

type ZeroLinksDetails struct {
	ChecksToday int `json:"checksToday"`
}

func (d *ZeroLinksDetails) AlertType() AlertType { return AlertZeroLinks }

type LowConfidenceDetails struct {
	HistoricalAverage float64 `json:"historicalAverage"`
	TodayAverage      float64 `json:"todayAverage"`
}

func (d *LowConfidenceDetails) AlertType() AlertType { return AlertLowConfidence }

type ConsecutiveFailuresDetails struct {
	Count     int    `json:"count"`
	LastError string `json:"lastError,omitempty"`
}

func (d *ConsecutiveFailuresDetails) AlertType() AlertType { return AlertConsecutiveFailures }

type LinkCountDropDetails struct {
	PreviousAverage float64 `json:"previousAverage"`
	CurrentAverage  float64 `json:"currentAverage"`
}

func (d *LinkCountDropDetails) AlertType() AlertType { return AlertLinkCountDrop }

type StructureChangedDetails struct {
	Reasons []string `json:"reasons"`
}

func (d *StructureChangedDetails) AlertType() AlertType { return AlertStructureChanged }

type Alert struct {
	ID        int64         `json:"id"`
	Type      AlertType     `json:"alertType"`
	SourceURL string        `json:"sourceUrl"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Notified  bool          `json:"notified"`
	Details   AlertDetails  `json:"details,omitempty"`
}

func MarshalAlertDetails(details AlertDetails) ([]byte, error) {
	if details == nil {
		return nil, nil
	}

	data, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("ошибка при сериализации деталей алерта: %w", err)
	}

	return data, nil
}

func UnmarshalAlertDetails(alertType AlertType, data []byte) (AlertDetails, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var details AlertDetails

	switch alertType {
	case AlertZeroLinks:
		details = &ZeroLinksDetails{}
	case AlertLowConfidence:
		details = &LowConfidenceDetails{}
	case AlertConsecutiveFailures:
		details = &ConsecutiveFailuresDetails{}
	case AlertLinkCountDrop:
		details = &LinkCountDropDetails{}
	case AlertStructureChanged:
		details = &StructureChangedDetails{}
	default:
		return nil, fmt.Errorf("неизвестный тип алерта: %s", alertType)
	}

	if err := json.Unmarshal(data, details); err != nil {
		return nil, fmt.Errorf("ошибка при десериализации деталей алерта: %w", err)
	}

	return details, nil
}
