// recordings.go covers the audio lifecycle records upstream of chunking:
// raw uploads, cleaned (noise-reduced) outputs, and diarized outputs.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// NewSourceAudio describes a raw recording registered after upload
type NewSourceAudio struct {
	ProjectUID string
	AudioID    string
	Path       string
	FileSize   int64
	Duration   float64
	CreatedBy  string
}

// CreateSourceAudio registers a raw recording. The helpline AudioID is
// unique across the corpus; re-registering the same export is a validation
// error rather than a silent overwrite.
func (s *Store) CreateSourceAudio(na NewSourceAudio) (*SourceAudio, error) {
	if na.AudioID == "" {
		return nil, fmt.Errorf("%w: audio id cannot be empty", ErrValidation)
	}
	if na.Path == "" {
		return nil, fmt.Errorf("%w: audio path cannot be empty", ErrValidation)
	}
	if na.ProjectUID == "" {
		return nil, fmt.Errorf("%w: project id cannot be empty", ErrValidation)
	}

	project, err := s.GetProject(na.ProjectUID)
	if err != nil {
		return nil, err
	}

	var existing SourceAudio
	err = s.db.Where("audio_id = ?", na.AudioID).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: audio %s already registered", ErrValidation, na.AudioID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check audio %s: %w", na.AudioID, err)
	}

	audio := &SourceAudio{
		ProjectID: project.ID,
		AudioID:   na.AudioID,
		Path:      na.Path,
		FileSize:  na.FileSize,
		Duration:  na.Duration,
		CreatedBy: na.CreatedBy,
	}
	if err := s.db.Create(audio).Error; err != nil {
		return nil, fmt.Errorf("failed to create source audio %s: %w", na.AudioID, err)
	}

	return audio, nil
}

// GetSourceAudio looks up a raw recording by its opaque unique id
func (s *Store) GetSourceAudio(uniqueID string) (*SourceAudio, error) {
	var audio SourceAudio
	err := s.db.Where("unique_id = ?", uniqueID).First(&audio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: source audio %s", ErrNotFound, uniqueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load source audio %s: %w", uniqueID, err)
	}
	return &audio, nil
}

// UnprocessedSourceAudio lists raw recordings still awaiting a successful
// preprocess handoff, oldest first, for retry sweeps.
func (s *Store) UnprocessedSourceAudio(projectUID string) ([]SourceAudio, error) {
	projectID, err := s.resolveScope(projectUID)
	if err != nil {
		return nil, err
	}

	var recordings []SourceAudio
	q := scoped(s.db, projectID).Where("is_processed = ?", false).Order("id")
	if err := q.Find(&recordings).Error; err != nil {
		return nil, fmt.Errorf("failed to list unprocessed audio: %w", err)
	}
	return recordings, nil
}

// MarkSourceProcessed flips the processed flag after the preprocess
// request was accepted. Callers invoke this only on a 2xx handoff; a
// failed trigger leaves the record eligible for retry.
func (s *Store) MarkSourceProcessed(uniqueID, updatedBy string) (*SourceAudio, error) {
	audio, err := s.GetSourceAudio(uniqueID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(audio).Updates(map[string]any{
		"is_processed": true,
		"updated_by":   updatedBy,
		"updated_at":   now(),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to mark audio %s processed: %w", uniqueID, err)
	}
	audio.IsProcessed = true
	audio.UpdatedBy = updatedBy

	return audio, nil
}

// NewCleanedAudio describes a noise-reduced output reported by the GPU tier
type NewCleanedAudio struct {
	SourceAudioUID string
	Path           string
	FileSize       int64
	Duration       float64
	CreatedBy      string
}

// CreateCleanedAudio records the cleaned output for a source recording.
// One cleaned record per source; a repeat report is a validation error.
func (s *Store) CreateCleanedAudio(nc NewCleanedAudio) (*CleanedAudio, error) {
	if nc.Path == "" {
		return nil, fmt.Errorf("%w: cleaned audio path cannot be empty", ErrValidation)
	}

	source, err := s.GetSourceAudio(nc.SourceAudioUID)
	if err != nil {
		return nil, err
	}

	cleaned := &CleanedAudio{
		ProjectID:     source.ProjectID,
		SourceAudioID: source.ID,
		Path:          nc.Path,
		FileSize:      nc.FileSize,
		Duration:      nc.Duration,
		CreatedBy:     nc.CreatedBy,
	}
	if err := s.db.Create(cleaned).Error; err != nil {
		return nil, fmt.Errorf("failed to create cleaned audio for %s: %w", nc.SourceAudioUID, err)
	}

	return cleaned, nil
}

// GetCleanedAudio looks up a cleaned recording by its opaque unique id
func (s *Store) GetCleanedAudio(uniqueID string) (*CleanedAudio, error) {
	var cleaned CleanedAudio
	err := s.db.Where("unique_id = ?", uniqueID).First(&cleaned).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cleaned audio %s", ErrNotFound, uniqueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cleaned audio %s: %w", uniqueID, err)
	}
	return &cleaned, nil
}

// ApproveCleanedAudio records reviewer sign-off on a cleaned recording.
// Approval is what makes the recording eligible for diarization.
func (s *Store) ApproveCleanedAudio(uniqueID, updatedBy string) (*CleanedAudio, error) {
	cleaned, err := s.GetCleanedAudio(uniqueID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(cleaned).Updates(map[string]any{
		"is_approved": true,
		"updated_by":  updatedBy,
		"updated_at":  now(),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to approve cleaned audio %s: %w", uniqueID, err)
	}
	cleaned.IsApproved = true
	cleaned.UpdatedBy = updatedBy

	return cleaned, nil
}

// NewDiarizedAudio describes a speaker-separated output reported by the
// GPU tier
type NewDiarizedAudio struct {
	CleanedAudioUID string
	Path            string
	SpeakerCount    int
	CreatedBy       string
}

// CreateDiarizedAudio records a diarized output for an approved cleaned
// recording.
func (s *Store) CreateDiarizedAudio(nd NewDiarizedAudio) (*DiarizedAudio, error) {
	if nd.Path == "" {
		return nil, fmt.Errorf("%w: diarized audio path cannot be empty", ErrValidation)
	}

	cleaned, err := s.GetCleanedAudio(nd.CleanedAudioUID)
	if err != nil {
		return nil, err
	}
	if !cleaned.IsApproved {
		return nil, fmt.Errorf("%w: cleaned audio %s is not approved", ErrValidation, nd.CleanedAudioUID)
	}

	diarized := &DiarizedAudio{
		ProjectID:      cleaned.ProjectID,
		CleanedAudioID: cleaned.ID,
		Path:           nd.Path,
		SpeakerCount:   nd.SpeakerCount,
		CreatedBy:      nd.CreatedBy,
	}
	if err := s.db.Create(diarized).Error; err != nil {
		return nil, fmt.Errorf("failed to create diarized audio for %s: %w", nd.CleanedAudioUID, err)
	}

	return diarized, nil
}

// GetDiarizedAudio looks up a diarized recording by its opaque unique id
func (s *Store) GetDiarizedAudio(uniqueID string) (*DiarizedAudio, error) {
	var diarized DiarizedAudio
	err := s.db.Where("unique_id = ?", uniqueID).First(&diarized).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: diarized audio %s", ErrNotFound, uniqueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load diarized audio %s: %w", uniqueID, err)
	}
	return &diarized, nil
}
