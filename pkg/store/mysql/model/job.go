package model

import "time"

// Job MySQL model for the jobs table. Rows are written by the external
// workers; this service reads them and only inserts on manual enqueue.
type Job struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID       string     `gorm:"column:job_id;type:varchar(255);not null;uniqueIndex:idx_job_id_unique" json:"job_id"`
	Type        string     `gorm:"column:type;type:varchar(100);not null;index:idx_type_created,priority:1" json:"type"`
	Status      string     `gorm:"column:status;type:varchar(50);not null;index:idx_status" json:"status"`
	Payload     JSONMap    `gorm:"column:payload;type:json" json:"payload"`
	Error       *string    `gorm:"column:error;type:text" json:"error"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	SiteID      *int64     `gorm:"column:site_id;index:idx_site_id" json:"site_id"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3);index:idx_type_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3);index:idx_updated_at" json:"updated_at"`
	StartedAt   *time.Time `gorm:"column:started_at;type:datetime(3)" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at;type:datetime(3);index:idx_completed_at" json:"completed_at"`
}

// TableName specifies the table name for Job
func (Job) TableName() string {
	return "jobs"
}
