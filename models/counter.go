package models

// LeadCounter backs the lead identifier sequencer. One row per
// (year, category key), e.g. "lead-2025-PCC". Seq only ever moves forward and
// is bumped with a single atomic UPDATE ... RETURNING, never read-then-write.
type LeadCounter struct {
	Key string `gorm:"primaryKey"`
	Seq int64  `gorm:"not null;default:0"`
}
