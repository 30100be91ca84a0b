package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"app/internal/authgate"
	"app/internal/docstore"
	"app/internal/loading"
	"app/internal/model"
	"app/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// coverRange bounds the pseudo-random cover selector: [0, 1000).
const coverRange = 1000

// CourseService synchronizes the remote course collection with the local
// cache. Cache updates are pessimistic: the cache is only touched after the
// remote store confirmed the write.
type CourseService interface {
	// FetchCourses reads all courses of the owner and replaces the cache.
	FetchCourses(ctx context.Context, opts Options) ([]model.Course, error)
	// PostCourse creates a course with a server-assigned id, creation time
	// and a random cover, re-reads the created document and prepends it to
	// the cache.
	PostCourse(ctx context.Context, newCourse model.NewCourse, opts Options) (*model.Course, error)
	// UpdateCourse sends the set fields of the patch to the remote store and,
	// when requested, applies the same patch to the cache entry.
	UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch, opts Options) error
	// GetNewCover is UpdateCourse specialized to a fresh random cover.
	GetNewCover(ctx context.Context, courseID string, opts Options) error
	// DeleteCourse deletes the course's chapters first, then the course
	// itself. A failing cascade leaves the course untouched.
	DeleteCourse(ctx context.Context, courseID string, opts Options) error
}

type courseService struct {
	docs     docstore.Store
	gate     authgate.Gate
	courses  *store.CourseStore
	chapters ChapterService
	bar      *loading.Bar
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(
	docs docstore.Store,
	gate authgate.Gate,
	courses *store.CourseStore,
	chapters ChapterService,
	bar *loading.Bar,
	validate *validator.Validate,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		docs:     docs,
		gate:     gate,
		courses:  courses,
		chapters: chapters,
		bar:      bar,
		validate: validate,
		logger:   logger.With().Str("service", "CourseService").Logger(),
	}
}

func (s *courseService) FetchCourses(ctx context.Context, opts Options) ([]model.Course, error) {
	uid, err := ownerID(s.gate)
	if err != nil {
		return nil, err
	}
	release := acquire(s.bar, opts.ShowLoading)
	defer release()

	snaps, err := s.docs.QueryCollection(ctx, coursesCollection(uid))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}

	courses := make([]model.Course, 0, len(snaps))
	for _, snap := range snaps {
		course, err := courseFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	s.courses.SetCourses(courses)
	return s.courses.Courses(), nil
}

func (s *courseService) PostCourse(ctx context.Context, newCourse model.NewCourse, opts Options) (*model.Course, error) {
	if err := s.validate.Struct(&newCourse); err != nil {
		return nil, fmt.Errorf("invalid course: %w", err)
	}
	uid, err := ownerID(s.gate)
	if err != nil {
		return nil, err
	}
	release := acquire(s.bar, opts.ShowLoading)
	defer release()

	fields := map[string]any{
		"name":      newCourse.Name,
		"status":    int(newCourse.Status),
		"coverId":   rand.Intn(coverRange),
		"createdAt": docstore.ServerTimestamp,
	}
	ref, err := s.docs.CreateDocument(ctx, coursesCollection(uid), fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	// Re-read so server-resolved fields (id, createdAt) come back. If this
	// fails the course exists remotely but stays out of the cache until the
	// next full fetch; a locally built entry would carry a guessed createdAt.
	snap, err := s.docs.GetDocument(ctx, ref)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", ref.ID).Msg("created course could not be read back")
		return nil, fmt.Errorf("failed to read back created course: %w", err)
	}
	if !snap.Exists {
		return nil, fmt.Errorf("created course %s: %w", ref.ID, docstore.ErrNotFound)
	}

	course, err := courseFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	s.courses.AddNewCourse(course)
	return &course, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch, opts Options) error {
	uid, err := ownerID(s.gate)
	if err != nil {
		return err
	}
	release := acquire(s.bar, opts.ShowLoading)
	defer release()

	ref := docstore.Ref{Collection: coursesCollection(uid), ID: courseID}
	if err := s.docs.UpdateDocument(ctx, ref, patch.Fields()); err != nil {
		return fmt.Errorf("failed to update course %s: %w", courseID, err)
	}

	if opts.UpdateStore {
		s.courses.UpdateCourse(courseID, patch)
	}
	return nil
}

func (s *courseService) GetNewCover(ctx context.Context, courseID string, opts Options) error {
	cover := rand.Intn(coverRange)
	return s.UpdateCourse(ctx, courseID, model.CoursePatch{CoverID: &cover}, opts)
}

func (s *courseService) DeleteCourse(ctx context.Context, courseID string, opts Options) error {
	uid, err := ownerID(s.gate)
	if err != nil {
		return err
	}
	release := acquire(s.bar, opts.ShowLoading)
	defer release()

	// Children before parent. A failing cascade aborts the whole delete so no
	// course is ever left without its chapters' history.
	if err := s.chapters.DeleteChaptersForCourse(ctx, courseID); err != nil {
		return fmt.Errorf("failed to delete chapters of course %s: %w", courseID, err)
	}

	ref := docstore.Ref{Collection: coursesCollection(uid), ID: courseID}
	if err := s.docs.DeleteDocument(ctx, ref); err != nil {
		return fmt.Errorf("failed to delete course %s: %w", courseID, err)
	}

	if opts.UpdateStore {
		s.courses.DeleteCourse(courseID)
	}
	return nil
}

// courseFromSnapshot converts a raw document into a typed course, decoding
// the server timestamp into a concrete time.
func courseFromSnapshot(snap docstore.Snapshot) (model.Course, error) {
	createdAt, err := snap.Time("createdAt")
	if err != nil {
		return model.Course{}, err
	}

	data := make(map[string]any, len(snap.Data))
	for k, v := range snap.Data {
		if k != "createdAt" {
			data[k] = v
		}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return model.Course{}, fmt.Errorf("failed to encode course %s: %w", snap.ID, err)
	}
	var course model.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return model.Course{}, fmt.Errorf("failed to decode course %s: %w", snap.ID, err)
	}
	course.ID = snap.ID
	course.CreatedAt = createdAt
	return course, nil
}
