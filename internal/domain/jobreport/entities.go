package jobreport

import (
	"time"

	"gorm.io/datatypes"
)

type Type string

const (
	TypeStatement     Type = "statement"
	TypeServicingSync Type = "servicing_sync"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Item is one skipped or errored facility with its reason.
type Item struct {
	FacilityID string `json:"facility_id"`
	Reason     string `json:"reason"`
}

// JobReport is written once per batch run and never updated.
type JobReport struct {
	ID            uint64                    `gorm:"primaryKey;column:id" json:"-"`
	RunID         string                    `gorm:"column:run_id;size:36;uniqueIndex" json:"run_id"`
	Type          Type                      `gorm:"column:type;size:32;index" json:"type"`
	Environment   string                    `gorm:"column:environment;size:16" json:"environment"`
	Status        Status                    `gorm:"column:status;size:16" json:"status"`
	StartedAt     time.Time                 `gorm:"column:started_at" json:"started_at"`
	FinishedAt    time.Time                 `gorm:"column:finished_at" json:"finished_at"`
	DurationMS    int64                     `gorm:"column:duration_ms" json:"duration_ms"`
	FacilityCount int                       `gorm:"column:facility_count" json:"facility_count"`
	SyncCount     int                       `gorm:"column:sync_count" json:"sync_count"`
	SkippedCount  int                       `gorm:"column:skipped_count" json:"skipped_count"`
	ErrorCount    int                       `gorm:"column:error_count" json:"error_count"`
	Skipped       datatypes.JSONSlice[Item] `gorm:"column:skipped" json:"skipped"`
	Errors        datatypes.JSONSlice[Item] `gorm:"column:errors" json:"errors"`
	Failure       string                    `gorm:"column:failure;type:text" json:"failure,omitempty"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (JobReport) TableName() string { return "job_reports" }
