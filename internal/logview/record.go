package logview

import (
	"encoding/json"
	"time"
)

// LogRecord is the shared shape of audit, security and access log rows.
// Records are backend-owned: the console only displays and filters them,
// and treats them as immutable once fetched.
type LogRecord struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	EventType    string    `json:"event_type"`
	Severity     string    `json:"severity"`
	ThreatLevel  string    `json:"threat_level,omitempty"`
	Action       string    `json:"action"`
	Username     string    `json:"username"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	SourceIP     string    `json:"source_ip"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// ParseRecords decodes an upstream payload, accepting both a bare array and
// the {"data": [...]} envelope.
func ParseRecords(body []byte) ([]LogRecord, error) {
	var records []LogRecord
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}
	var envelope struct {
		Data []LogRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
