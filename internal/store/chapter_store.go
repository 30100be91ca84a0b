package store

import (
	"sort"
	"sync"

	"app/internal/model"
)

// ChapterStore caches the chapters of the course currently open in the UI.
type ChapterStore struct {
	mu       sync.Mutex
	courseID string
	chapters []model.Chapter
	changes  *notifier
}

func NewChapterStore() *ChapterStore {
	return &ChapterStore{changes: newNotifier()}
}

// SetChapters replaces the cache with the fetched chapters of one course,
// ordered by creation time ascending.
func (s *ChapterStore) SetChapters(courseID string, chapters []model.Chapter) {
	sorted := make([]model.Chapter, len(chapters))
	copy(sorted, chapters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	s.mu.Lock()
	s.courseID = courseID
	s.chapters = sorted
	s.mu.Unlock()
	s.changes.notify()
}

// AddNewChapter appends a freshly created chapter.
func (s *ChapterStore) AddNewChapter(chapter model.Chapter) {
	s.mu.Lock()
	s.chapters = append(s.chapters, chapter)
	s.mu.Unlock()
	s.changes.notify()
}

// UpdateChapter applies the set fields of the patch to every matching entry.
func (s *ChapterStore) UpdateChapter(chapterID string, patch model.ChapterPatch) {
	s.mu.Lock()
	for i := range s.chapters {
		if s.chapters[i].ID != chapterID {
			continue
		}
		if patch.Name != nil {
			s.chapters[i].Name = *patch.Name
		}
		if patch.Content != nil {
			s.chapters[i].Content = *patch.Content
		}
	}
	s.mu.Unlock()
	s.changes.notify()
}

// DeleteChapter removes the first matching entry; missing ids are a no-op.
func (s *ChapterStore) DeleteChapter(chapterID string) {
	s.mu.Lock()
	for i := range s.chapters {
		if s.chapters[i].ID == chapterID {
			s.chapters = append(s.chapters[:i], s.chapters[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.changes.notify()
}

// Clear empties the cache, e.g. when navigating away from a course.
func (s *ChapterStore) Clear() {
	s.mu.Lock()
	s.courseID = ""
	s.chapters = nil
	s.mu.Unlock()
	s.changes.notify()
}

// Chapters returns the cached course id and a copy of its chapters.
func (s *ChapterStore) Chapters() (string, []model.Chapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Chapter, len(s.chapters))
	copy(out, s.chapters)
	return s.courseID, out
}

// Subscribe reports cache changes for reactive rendering.
func (s *ChapterStore) Subscribe() (<-chan struct{}, func()) {
	return s.changes.Subscribe()
}
