package models

import "time"

// ScanState is the outcome of the most recent library scan.
type ScanState struct {
	ID         int       `json:"id"`
	Running    bool      `json:"running"`
	FilesSeen  int       `json:"files_seen"`
	Imported   int       `json:"imported"`
	Failed     int       `json:"failed"`
	LastError  string    `json:"last_error,omitempty"`
	LastScanAt time.Time `json:"last_scan_at"`
}
