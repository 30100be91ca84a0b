package store

import (
	"sort"
	"sync"

	"app/internal/model"
)

// CourseStore is the session-scoped cache of the owner's courses. It is a
// projection of the remote store: the services are its only writers, readers
// get copies. Construct one per app and inject it, there are no singletons.
type CourseStore struct {
	mu      sync.Mutex
	courses []model.Course
	changes *notifier
}

func NewCourseStore() *CourseStore {
	return &CourseStore{changes: newNotifier()}
}

// SetCourses replaces the whole cache with the fetched result, ordered by
// status ascending, then creation time ascending. Ties on both keys keep
// their incoming order, but callers must not rely on that.
func (s *CourseStore) SetCourses(courses []model.Course) {
	sorted := make([]model.Course, len(courses))
	copy(sorted, courses)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Status != sorted[j].Status {
			return sorted[i].Status < sorted[j].Status
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	s.mu.Lock()
	s.courses = sorted
	s.mu.Unlock()
	s.changes.notify()
}

// AddNewCourse puts the course at the front of the cache, bypassing the
// comparator on purpose: freshly created content is always shown first,
// whatever its status.
func (s *CourseStore) AddNewCourse(course model.Course) {
	s.mu.Lock()
	s.courses = append([]model.Course{course}, s.courses...)
	s.mu.Unlock()
	s.changes.notify()
}

// UpdateCourse applies the set fields of the patch to every entry matching
// the id. Ids are unique so at most one should match, but the match is not
// assumed. Unset fields are left untouched.
func (s *CourseStore) UpdateCourse(courseID string, patch model.CoursePatch) {
	s.mu.Lock()
	for i := range s.courses {
		if s.courses[i].ID != courseID {
			continue
		}
		if patch.Name != nil {
			s.courses[i].Name = *patch.Name
		}
		if patch.Status != nil {
			s.courses[i].Status = *patch.Status
		}
		if patch.CoverID != nil {
			s.courses[i].CoverID = *patch.CoverID
		}
	}
	s.mu.Unlock()
	s.changes.notify()
}

// DeleteCourse removes the first entry matching the id. A missing id is a
// no-op, not a failure.
func (s *CourseStore) DeleteCourse(courseID string) {
	s.mu.Lock()
	for i := range s.courses {
		if s.courses[i].ID == courseID {
			s.courses = append(s.courses[:i], s.courses[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.changes.notify()
}

// Courses returns a copy of the cache in its current order.
func (s *CourseStore) Courses() []model.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Course, len(s.courses))
	copy(out, s.courses)
	return out
}

// Course looks up a single entry by id.
func (s *CourseStore) Course(courseID string) (model.Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.courses {
		if c.ID == courseID {
			return c, true
		}
	}
	return model.Course{}, false
}

// Subscribe reports cache changes for reactive rendering.
func (s *CourseStore) Subscribe() (<-chan struct{}, func()) {
	return s.changes.Subscribe()
}
