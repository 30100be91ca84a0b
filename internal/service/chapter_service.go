package service

import (
	"context"
	"encoding/json"
	"fmt"

	"app/internal/authgate"
	"app/internal/docstore"
	"app/internal/loading"
	"app/internal/model"
	"app/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ChapterService synchronizes the chapters nested under a course, with the
// same pessimistic cache protocol as CourseService.
type ChapterService interface {
	// FetchChapters reads all chapters of a course and replaces the cache.
	FetchChapters(ctx context.Context, courseID string, opts Options) ([]model.Chapter, error)
	// PostChapter creates a chapter and appends it to the cache after the
	// post-create re-read confirms it.
	PostChapter(ctx context.Context, courseID string, newChapter model.NewChapter, opts Options) (*model.Chapter, error)
	// UpdateChapter sends the set fields of the patch and optionally applies
	// them to the cache entry.
	UpdateChapter(ctx context.Context, courseID, chapterID string, patch model.ChapterPatch, opts Options) error
	// DeleteChapter deletes one chapter document.
	DeleteChapter(ctx context.Context, courseID, chapterID string, opts Options) error
	// DeleteChaptersForCourse deletes every chapter of a course, aborting on
	// the first failure. Used by the course delete cascade.
	DeleteChaptersForCourse(ctx context.Context, courseID string) error
}

type chapterService struct {
	docs     docstore.Store
	gate     authgate.Gate
	chapters *store.ChapterStore
	bar      *loading.Bar
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewChapterService creates a new ChapterService.
func NewChapterService(
	docs docstore.Store,
	gate authgate.Gate,
	chapters *store.ChapterStore,
	bar *loading.Bar,
	validate *validator.Validate,
	logger zerolog.Logger,
) ChapterService {
	return &chapterService{
		docs:     docs,
		gate:     gate,
		chapters: chapters,
		bar:      bar,
		validate: validate,
		logger:   logger.With().Str("service", "ChapterService").Logger(),
	}
}

func (s *chapterService) FetchChapters(ctx context.Context, courseID string, opts Options) ([]model.Chapter, error) {
	uid, err := ownerID(s.gate)
	if err != nil {
		return nil, err
	}
	release := acquire(s.bar, opts.ShowLoading)
	defer release()

	snaps, err := s.docs.QueryCollection(ctx, chaptersCollection(uid, courseID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chapters of course %s: %w", courseID, err)
	}

	chapters := make([]model.Chapter, 0, len(snaps))
	for _, snap := range snaps {
		chapter, err := chapterFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}

	s.chapters.SetChapters(courseID, chapters)
	_, cached := s.chapters.Chapters()
	return cached, nil
}

func (s *chapterService) PostChapter(ctx context.Context, courseID string, newChapter model.NewChapter, opts Options) (*model.Chapter, error) {
	if err := s.validate.Struct(&newChapter); err != nil {
		return nil, fmt.Errorf("invalid chapter: %w", err)
	}
	uid, err := ownerID(s.gate)
	if err != nil {
		return nil, err
	}
	release := acquire(s.bar, opts.ShowLoading)
	defer release()

	fields := map[string]any{
		"name":      newChapter.Name,
		"content":   newChapter.Content,
		"createdAt": docstore.ServerTimestamp,
	}
	ref, err := s.docs.CreateDocument(ctx, chaptersCollection(uid, courseID), fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}

	snap, err := s.docs.GetDocument(ctx, ref)
	if err != nil {
		s.logger.Error().Err(err).Str("chapter_id", ref.ID).Msg("created chapter could not be read back")
		return nil, fmt.Errorf("failed to read back created chapter: %w", err)
	}
	if !snap.Exists {
		return nil, fmt.Errorf("created chapter %s: %w", ref.ID, docstore.ErrNotFound)
	}

	chapter, err := chapterFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	s.chapters.AddNewChapter(chapter)
	return &chapter, nil
}

func (s *chapterService) UpdateChapter(ctx context.Context, courseID, chapterID string, patch model.ChapterPatch, opts Options) error {
	uid, err := ownerID(s.gate)
	if err != nil {
		return err
	}
	release := acquire(s.bar, opts.ShowLoading)
	defer release()

	ref := docstore.Ref{Collection: chaptersCollection(uid, courseID), ID: chapterID}
	if err := s.docs.UpdateDocument(ctx, ref, patch.Fields()); err != nil {
		return fmt.Errorf("failed to update chapter %s: %w", chapterID, err)
	}

	if opts.UpdateStore {
		s.chapters.UpdateChapter(chapterID, patch)
	}
	return nil
}

func (s *chapterService) DeleteChapter(ctx context.Context, courseID, chapterID string, opts Options) error {
	uid, err := ownerID(s.gate)
	if err != nil {
		return err
	}
	release := acquire(s.bar, opts.ShowLoading)
	defer release()

	ref := docstore.Ref{Collection: chaptersCollection(uid, courseID), ID: chapterID}
	if err := s.docs.DeleteDocument(ctx, ref); err != nil {
		return fmt.Errorf("failed to delete chapter %s: %w", chapterID, err)
	}

	if opts.UpdateStore {
		s.chapters.DeleteChapter(chapterID)
	}
	return nil
}

func (s *chapterService) DeleteChaptersForCourse(ctx context.Context, courseID string) error {
	uid, err := ownerID(s.gate)
	if err != nil {
		return err
	}

	collection := chaptersCollection(uid, courseID)
	snaps, err := s.docs.QueryCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to list chapters of course %s: %w", courseID, err)
	}

	for _, snap := range snaps {
		ref := docstore.Ref{Collection: collection, ID: snap.ID}
		if err := s.docs.DeleteDocument(ctx, ref); err != nil {
			return fmt.Errorf("failed to delete chapter %s: %w", snap.ID, err)
		}
	}
	return nil
}

func chapterFromSnapshot(snap docstore.Snapshot) (model.Chapter, error) {
	createdAt, err := snap.Time("createdAt")
	if err != nil {
		return model.Chapter{}, err
	}

	data := make(map[string]any, len(snap.Data))
	for k, v := range snap.Data {
		if k != "createdAt" {
			data[k] = v
		}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return model.Chapter{}, fmt.Errorf("failed to encode chapter %s: %w", snap.ID, err)
	}
	var chapter model.Chapter
	if err := json.Unmarshal(raw, &chapter); err != nil {
		return model.Chapter{}, fmt.Errorf("failed to decode chapter %s: %w", snap.ID, err)
	}
	chapter.ID = snap.ID
	chapter.CreatedAt = createdAt
	return chapter, nil
}
