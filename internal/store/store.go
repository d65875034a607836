package store

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Sentinel errors for the §7 taxonomy: callers map ErrNotFound to 404 and
// ErrValidation to 400-equivalents.
var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("validation failed")
)

// Store wraps the database connection for all annotation records
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database at path and migrates the
// schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(
		&Project{},
		&SourceAudio{},
		&CleanedAudio{},
		&DiarizedAudio{},
		&AudioChunk{},
		&Evaluation{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Store{db: db, logger: log}, nil
}

// Close releases the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateProject creates a new tenancy scope
func (s *Store) CreateProject(name, createdBy string) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: project name cannot be empty", ErrValidation)
	}

	project := &Project{Name: name, CreatedBy: createdBy}
	if err := s.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// GetProject looks up a project by its opaque unique id
func (s *Store) GetProject(uniqueID string) (*Project, error) {
	var project Project
	err := s.db.Where("unique_id = ?", uniqueID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, uniqueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", uniqueID, err)
	}
	return &project, nil
}

// resolveScope translates an optional project unique id into a scoping
// predicate. An unknown project id is a not-found error; no partial
// results are returned for it.
func (s *Store) resolveScope(projectUID string) (*uint, error) {
	if projectUID == "" {
		return nil, nil
	}

	project, err := s.GetProject(projectUID)
	if err != nil {
		return nil, err
	}
	return &project.ID, nil
}

// scoped applies the project predicate to a query when one is in force
func scoped(q *gorm.DB, projectID *uint) *gorm.DB {
	if projectID != nil {
		return q.Where("project_id = ?", *projectID)
	}
	return q
}

func now() time.Time {
	return time.Now().UTC()
}
