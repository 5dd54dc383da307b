package domain

import (
	"sort"
	"strings"
)

// ScanRequest asks for a keyword to be scanned. An empty Adapters list means every registered adapter.
type ScanRequest struct {
	SearchKeyword string   `json:"searchKeyword"`
	Adapters      []string `json:"adapters,omitempty"`
}

func (r ScanRequest) Keyword() string {
	return strings.TrimSpace(r.SearchKeyword)
}

type ScanState string

const (
	ScanRunning             ScanState = "RUNNING"
	ScanCompleted           ScanState = "COMPLETED"
	ScanCompletedWithErrors ScanState = "COMPLETED_WITH_ERRORS"
)

// ScanOutcome carries new records and per-adapter errors side by side; both may be non-empty.
type ScanOutcome struct {
	State      ScanState         `json:"state"`
	NewRecords []ContentRecord   `json:"newRecords"`
	Errors     map[string]string `json:"errors"`
}

// SortByPublishedDesc orders records newest first. Ties keep their arrival order.
func SortByPublishedDesc(records []ContentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})
}
