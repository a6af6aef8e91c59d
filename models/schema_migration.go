package models

import "time"

// SchemaMigration records one applied schema version
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false" json:"version"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	AppliedAt time.Time `gorm:"not null" json:"applied_at"`
}

// TableName specifies the table name for the SchemaMigration model
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}
