// Package domain defines the records produced by the hatchery: eggs and the
// creatures hatched from them. The same types are serialized to the JSON
// document store and mapped with GORM for the SQLite store.
package domain

import "time"

// EggStatus is the lifecycle state of an egg.
type EggStatus string

const (
	// EggCreated is the initial state of every egg.
	EggCreated EggStatus = "created"
	// EggHatched is set once a creature referencing the egg has been stored.
	EggHatched EggStatus = "hatched"
)

// Valid reports whether s is a known status.
func (s EggStatus) Valid() bool {
	return s == EggCreated || s == EggHatched
}

// Egg represents a not-yet-hatched artifact: a description, its descriptor
// tags and the generated illustration.
//
// Fields:
//   - ID: UUID assigned at creation, immutable.
//   - Description: free text supplied by the user or derived from an image.
//   - Descriptors: ordered trait tags used to steer later generation.
//   - ImageURL: locally served path of the generated egg image.
//   - CreatedAt: creation time, immutable.
//   - Status: "created" until a creature hatches from it, then "hatched".
//   - IncubationStage: reserved counter, always 0 here.
type Egg struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	Description     string    `json:"description"      gorm:"type:text;not null"`
	Descriptors     []string  `json:"descriptors"      gorm:"serializer:json;type:text"`
	ImageURL        string    `json:"image_url"        gorm:"type:varchar(255);not null"`
	CreatedAt       time.Time `json:"created_at"       gorm:"index:idx_eggs_created"`
	Status          EggStatus `json:"status"           gorm:"type:varchar(16);not null;default:'created';check:status IN ('created','hatched')"`
	IncubationStage int       `json:"incubation_stage" gorm:"not null;default:0"`
}

// TableName returns the database table name for Egg.
func (Egg) TableName() string { return "eggs" }
