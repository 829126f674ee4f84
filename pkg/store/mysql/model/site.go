package model

import "time"

// Site MySQL model for the sites table (tenant sites owned by the platform;
// read-only here, joined for display names on failure records).
type Site struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Domain    string    `gorm:"column:domain;type:varchar(255);not null;uniqueIndex:idx_domain_unique" json:"domain"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for Site
func (Site) TableName() string {
	return "sites"
}
