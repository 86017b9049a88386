package audiofile

import (
	"context"
	"errors"

	"github.com/eleven-am/transcript-demo/internal/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&AudioFile{})
}

func (s *Store) Create(ctx context.Context, f *AudioFile) error {
	if f.ID == "" {
		f.ID = shared.NewID("file_")
	}
	return s.db.WithContext(ctx).Create(f).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*AudioFile, error) {
	var f AudioFile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns files ordered by creation time. An empty source lists everything.
func (s *Store) List(ctx context.Context, source Source) ([]*AudioFile, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if source != "" {
		q = q.Where("source = ?", source)
	}

	var files []*AudioFile
	if err := q.Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Store) First(ctx context.Context, source Source) (*AudioFile, error) {
	var f AudioFile
	err := s.db.WithContext(ctx).
		Where("source = ?", source).
		Order("created_at ASC, id ASC").
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&AudioFile{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SeedSamples upserts the bundled samples by id so restarts pick up renamed
// or re-pointed entries.
func (s *Store) SeedSamples(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	files := make([]*AudioFile, 0, len(samples))
	for _, sample := range samples {
		files = append(files, sample.AudioFile())
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "url", "content_type"}),
	}).Create(&files).Error
}
