// model.go defines the persisted data model for the annotation pipeline
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gender tag values for AudioChunk
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderNotSure = "not_sure"
)

// Locale tag values for AudioChunk
const (
	LocaleEnglish = "en"
	LocaleSwahili = "sw"
	LocaleBoth    = "both"
)

// Project is the tenancy boundary: every audio record and evaluation
// belongs to exactly one project, and scoped queries never cross it.
type Project struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UniqueID  string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"unique_id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedBy string    `gorm:"type:varchar(50)" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceAudio is a raw call-center recording as uploaded, before any
// preprocessing. IsProcessed flips only after the GPU collaborator accepts
// the preprocess request, so a failed trigger leaves the record retriable.
type SourceAudio struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UniqueID    string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"unique_id"`
	ProjectID   uint      `gorm:"index;not null" json:"-"`
	AudioID     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"audio_id"` // helpline export reference
	Path        string    `gorm:"type:varchar(255);not null" json:"path"`                // relative, under raw/
	FileSize    int64     `json:"file_size"`
	Duration    float64   `json:"duration"`
	IsProcessed bool      `gorm:"index" json:"is_processed"`
	CreatedBy   string    `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy   string    `gorm:"type:varchar(50)" json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CleanedAudio is the noise-reduced output the GPU tier writes under
// processed/. A reviewer approves it before diarization is requested.
type CleanedAudio struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UniqueID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"unique_id"`
	ProjectID     uint      `gorm:"index;not null" json:"-"`
	SourceAudioID uint      `gorm:"uniqueIndex;not null" json:"-"`
	Path          string    `gorm:"type:varchar(255);not null" json:"path"` // relative, under processed/
	FileSize      int64     `json:"file_size"`
	Duration      float64   `json:"duration"`
	IsApproved    bool      `gorm:"index" json:"is_approved"`
	CreatedBy     string    `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy     string    `gorm:"type:varchar(50)" json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DiarizedAudio is a speaker-separated recording written under diarized/.
// Its creation triggers the chunking stage.
type DiarizedAudio struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UniqueID       string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"unique_id"`
	ProjectID      uint      `gorm:"index;not null" json:"-"`
	CleanedAudioID uint      `gorm:"index;not null" json:"-"`
	Path           string    `gorm:"type:varchar(255);not null" json:"path"` // relative, under diarized/
	SpeakerCount   int       `json:"speaker_count"`
	CreatedBy      string    `gorm:"type:varchar(50)" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AudioChunk is a short playable sub-clip, the unit of evaluation and
// transcription. Chunks are created by the segmenter (or bulk upload) and
// are never deleted by the normal workflow; the only later mutation is
// attaching ground-truth transcription text.
type AudioChunk struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UniqueID    string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"unique_id"`
	ProjectID   uint      `gorm:"index;not null" json:"-"`
	Path        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"path"` // relative, under chunks/
	Duration    float64   `json:"duration"`
	FeatureText string    `gorm:"type:text" json:"feature_text"` // ground-truth transcription
	Gender      string    `gorm:"type:varchar(10);default:not_sure" json:"gender"`
	Locale      string    `gorm:"type:varchar(5);default:both" json:"locale"`
	CreatedBy   string    `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy   string    `gorm:"type:varchar(50)" json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Evaluations []Evaluation `gorm:"foreignKey:ChunkID;constraint:OnDelete:CASCADE" json:"-"`
}

// Evaluation is one reviewer's judgment of one chunk. The composite unique
// index enforces the one-row-per-(chunk, evaluator) invariant; resubmission
// updates the row in place.
type Evaluation struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	UniqueID      string `gorm:"type:varchar(36);uniqueIndex;not null" json:"unique_id"`
	ChunkID       uint   `gorm:"not null;uniqueIndex:idx_evaluations_chunk_evaluator" json:"-"`
	ProjectID     uint   `gorm:"index;not null" json:"-"`
	EvaluatedBy   string `gorm:"type:varchar(50);not null;uniqueIndex:idx_evaluations_chunk_evaluator" json:"evaluated_by"`
	SchemaVersion int    `gorm:"not null" json:"schema_version"`

	NotClear         bool `json:"not_clear"`
	SpeakerOverlap   bool `json:"speaker_overlap"`
	DualSpeaker      bool `json:"dual_speaker"`
	BackgroundNoise  bool `json:"background_noise"`
	ProlongedSilence bool `json:"prolonged_silence"`
	IncompleteWord   bool `json:"incomplete_word"`

	// DefectCount is frozen at submission time under SchemaVersion so
	// historical scores stay reproducible across flag-set changes.
	DefectCount int `gorm:"not null" json:"defect_count"`

	Notes           string    `gorm:"type:text" json:"notes"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds float64   `json:"duration_seconds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns opaque unique ids on insert
func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.UniqueID == "" {
		p.UniqueID = uuid.NewString()
	}
	return nil
}

func (a *SourceAudio) BeforeCreate(*gorm.DB) error {
	if a.UniqueID == "" {
		a.UniqueID = uuid.NewString()
	}
	return nil
}

func (c *CleanedAudio) BeforeCreate(*gorm.DB) error {
	if c.UniqueID == "" {
		c.UniqueID = uuid.NewString()
	}
	return nil
}

func (d *DiarizedAudio) BeforeCreate(*gorm.DB) error {
	if d.UniqueID == "" {
		d.UniqueID = uuid.NewString()
	}
	return nil
}

func (c *AudioChunk) BeforeCreate(*gorm.DB) error {
	if c.UniqueID == "" {
		c.UniqueID = uuid.NewString()
	}
	return nil
}

func (e *Evaluation) BeforeCreate(*gorm.DB) error {
	if e.UniqueID == "" {
		e.UniqueID = uuid.NewString()
	}
	return nil
}
