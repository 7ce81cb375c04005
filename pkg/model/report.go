package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate go run github.com/dmarkham/enumer -type ReportKind -trimprefix ReportKind -transform lower -json -text -sql -output report_kind.gen.go

// ReportKind is the period a report covers
type ReportKind int

const (
	ReportKindMonthly ReportKind = iota
	ReportKindWeekly
)

// Report is a generated activity summary for one period. PeriodEnd is exclusive.
type Report struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Kind        ReportKind     `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	PeriodStart time.Time      `gorm:"column:period_start;not null" json:"period_start"`
	PeriodEnd   time.Time      `gorm:"column:period_end;not null" json:"period_end"`
	ReportText  string         `gorm:"column:report_text;type:text;not null" json:"report_text"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Report) TableName() string {
	return "reports"
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
