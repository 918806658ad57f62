package models

import "time"

// Resource is a shared schedulable asset such as a court.
type Resource struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	DefaultCapacity int       `db:"default_capacity" json:"default_capacity"`
	AllowOutsiders  bool      `db:"allow_outsiders" json:"allow_outsiders"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
