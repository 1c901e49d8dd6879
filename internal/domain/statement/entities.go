package statement

import "time"

// Statement is append-only: one per (facility_id, statement_date).
type Statement struct {
	ID            uint64     `gorm:"primaryKey;column:id" json:"-"`
	StatementID   string     `gorm:"column:statement_id;size:32;uniqueIndex" json:"statement_id"`
	FacilityID    string     `gorm:"column:facility_id;size:32;uniqueIndex:ux_statements_facility_date,priority:1" json:"facility_id"`
	StatementDate time.Time  `gorm:"column:statement_date;type:date;uniqueIndex:ux_statements_facility_date,priority:2" json:"statement_date"`
	PeriodStart   time.Time  `gorm:"column:period_start;type:date" json:"period_start"`
	PeriodEnd     time.Time  `gorm:"column:period_end;type:date" json:"period_end"`
	AmountDue     int64      `gorm:"column:amount_due" json:"amount_due"`
	PaymentDueOn  *time.Time `gorm:"column:payment_due_on;type:date" json:"payment_due_on"`
	SubmissionID  string     `gorm:"column:submission_id;size:64" json:"submission_id"`
	DocumentURL   string     `gorm:"column:document_url;type:text" json:"document_url"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Statement) TableName() string { return "statements" }
