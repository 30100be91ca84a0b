package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/authgate"
	"app/internal/docstore"
	"app/internal/loading"
	"app/internal/model"
	"app/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

func newCourseService(docs docstore.Store, gate authgate.Gate, courses *store.CourseStore, chapters ChapterService, bar *loading.Bar) CourseService {
	if chapters == nil {
		chapters = &fakeChapters{}
	}
	return NewCourseService(docs, gate, courses, chapters, bar, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func courseSnapshot(id, name string, status int, createdAt time.Time) docstore.Snapshot {
	return docstore.Snapshot{
		ID:     id,
		Exists: true,
		Data: map[string]any{
			"name":      name,
			"status":    status,
			"coverId":   3,
			"createdAt": createdAt,
		},
	}
}

func TestFetchCoursesUnauthenticated(t *testing.T) {
	docs := &fakeStore{}
	svc := newCourseService(docs, &fakeGate{}, store.NewCourseStore(), nil, loading.NewBar())

	_, err := svc.FetchCourses(context.Background(), Options{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if len(docs.calls) != 0 {
		t.Fatalf("remote store touched while unauthenticated: %v", docs.calls)
	}
}

func TestFetchCoursesReplacesStoreSorted(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := &fakeStore{
		queryFn: func(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
			if collection != "users/owner-1/courses" {
				t.Fatalf("unexpected collection %s", collection)
			}
			return []docstore.Snapshot{
				courseSnapshot("a", "active one", 1, t0),
				courseSnapshot("b", "draft one", 0, t0.Add(time.Hour)),
			}, nil
		},
	}
	courses := store.NewCourseStore()
	svc := newCourseService(docs, signedInGate(), courses, nil, loading.NewBar())

	got, err := svc.FetchCourses(context.Background(), Options{})
	if err != nil {
		t.Fatalf("FetchCourses: %v", err)
	}
	// Draft (status 0) sorts before active (status 1) despite being newer.
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatal("createdAt not decoded")
	}
}

func TestFetchCoursesReleasesLoadingOnFailure(t *testing.T) {
	docs := &fakeStore{
		queryFn: func(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
			return nil, errors.New("remote down")
		},
	}
	bar := loading.NewBar()
	svc := newCourseService(docs, signedInGate(), store.NewCourseStore(), nil, bar)

	if _, err := svc.FetchCourses(context.Background(), Options{ShowLoading: true}); err == nil {
		t.Fatal("expected error")
	}
	if bar.Active() {
		t.Fatal("loading indicator leaked on failure")
	}
}

func TestPostCoursePrependsConfirmedCourse(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var sentFields map[string]any
	docs := &fakeStore{
		createFn: func(ctx context.Context, collection string, fields map[string]any) (docstore.Ref, error) {
			sentFields = fields
			return docstore.Ref{Collection: collection, ID: "c1"}, nil
		},
		getFn: func(ctx context.Context, ref docstore.Ref) (docstore.Snapshot, error) {
			return courseSnapshot(ref.ID, "fresh", 0, t0), nil
		},
	}
	courses := store.NewCourseStore()
	courses.SetCourses([]model.Course{{ID: "old", Status: model.StatusDraft, CreatedAt: t0.Add(-time.Hour)}})
	svc := newCourseService(docs, signedInGate(), courses, nil, loading.NewBar())

	created, err := svc.PostCourse(context.Background(), model.NewCourse{Name: "fresh"}, Options{})
	if err != nil {
		t.Fatalf("PostCourse: %v", err)
	}
	if created.ID != "c1" {
		t.Fatalf("created id = %s, want c1", created.ID)
	}

	if _, ok := sentFields["createdAt"]; !ok {
		t.Fatal("createdAt sentinel not sent")
	}
	cover, ok := sentFields["coverId"].(int)
	if !ok || cover < 0 || cover >= 1000 {
		t.Fatalf("coverId = %v, want random int in [0,1000)", sentFields["coverId"])
	}

	got := courses.Courses()
	if got[0].ID != "c1" {
		t.Fatalf("new course not first: %+v", got)
	}
}

func TestPostCourseReadBackFailure(t *testing.T) {
	docs := &fakeStore{
		getFn: func(ctx context.Context, ref docstore.Ref) (docstore.Snapshot, error) {
			return docstore.Snapshot{}, errors.New("read back failed")
		},
	}
	courses := store.NewCourseStore()
	bar := loading.NewBar()
	// One outstanding acquisition lets us detect an over-eager Stop.
	bar.Start()
	svc := newCourseService(docs, signedInGate(), courses, nil, bar)

	_, err := svc.PostCourse(context.Background(), model.NewCourse{Name: "x"}, Options{ShowLoading: true})
	if err == nil {
		t.Fatal("expected error")
	}
	// The course exists remotely but is not confirmed into the cache.
	if len(courses.Courses()) != 0 {
		t.Fatalf("cache mutated on unconfirmed create: %+v", courses.Courses())
	}
	// The indicator was released exactly once: our own acquisition survives.
	if !bar.Active() {
		t.Fatal("indicator stopped more than once")
	}
	bar.Stop()
	if bar.Active() {
		t.Fatal("indicator not released by the service")
	}
}

func TestPostCourseRejectsInvalidInput(t *testing.T) {
	docs := &fakeStore{}
	svc := newCourseService(docs, signedInGate(), store.NewCourseStore(), nil, loading.NewBar())

	if _, err := svc.PostCourse(context.Background(), model.NewCourse{}, Options{}); err == nil {
		t.Fatal("expected validation error for missing name")
	}
	if len(docs.calls) != 0 {
		t.Fatalf("remote store touched for invalid input: %v", docs.calls)
	}
}

func TestUpdateCourseSendsOnlySetFields(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var sentFields map[string]any
	docs := &fakeStore{
		updateFn: func(ctx context.Context, ref docstore.Ref, fields map[string]any) error {
			sentFields = fields
			return nil
		},
	}
	courses := store.NewCourseStore()
	courses.SetCourses([]model.Course{{ID: "a", Name: "old", Status: model.StatusActive, CoverID: 9, CreatedAt: t0}})
	svc := newCourseService(docs, signedInGate(), courses, nil, loading.NewBar())

	name := "renamed"
	draft := model.StatusDraft
	err := svc.UpdateCourse(context.Background(), "a", model.CoursePatch{Name: &name, Status: &draft}, Options{UpdateStore: true})
	if err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}

	if len(sentFields) != 2 {
		t.Fatalf("sent fields = %v, want name and status only", sentFields)
	}
	// StatusDraft is the zero value and must still be part of the patch.
	if sentFields["status"] != 0 {
		t.Fatalf("status = %v, want 0", sentFields["status"])
	}

	got, _ := courses.Course("a")
	if got.Name != "renamed" || got.Status != model.StatusDraft || got.CoverID != 9 {
		t.Fatalf("cache entry = %+v", got)
	}
}

func TestUpdateCourseSkipsStoreWithoutOption(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	courses := store.NewCourseStore()
	courses.SetCourses([]model.Course{{ID: "a", Name: "old", CreatedAt: t0}})
	svc := newCourseService(&fakeStore{}, signedInGate(), courses, nil, loading.NewBar())

	name := "renamed"
	if err := svc.UpdateCourse(context.Background(), "a", model.CoursePatch{Name: &name}, Options{}); err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}

	got, _ := courses.Course("a")
	if got.Name != "old" {
		t.Fatalf("cache mutated without UpdateStore: %+v", got)
	}
}

func TestGetNewCoverPatchesCoverOnly(t *testing.T) {
	var sentFields map[string]any
	docs := &fakeStore{
		updateFn: func(ctx context.Context, ref docstore.Ref, fields map[string]any) error {
			sentFields = fields
			return nil
		},
	}
	svc := newCourseService(docs, signedInGate(), store.NewCourseStore(), nil, loading.NewBar())

	if err := svc.GetNewCover(context.Background(), "a", Options{}); err != nil {
		t.Fatalf("GetNewCover: %v", err)
	}
	if len(sentFields) != 1 {
		t.Fatalf("sent fields = %v, want coverId only", sentFields)
	}
	cover, ok := sentFields["coverId"].(int)
	if !ok || cover < 0 || cover >= 1000 {
		t.Fatalf("coverId = %v, want int in [0,1000)", sentFields["coverId"])
	}
}

func TestDeleteCourseCascadeFailureKeepsCourse(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := &fakeStore{}
	courses := store.NewCourseStore()
	courses.SetCourses([]model.Course{{ID: "a", CreatedAt: t0}})
	cascadeErr := errors.New("chapter delete failed")
	chapters := &fakeChapters{cascadeErr: cascadeErr}
	svc := newCourseService(docs, signedInGate(), courses, chapters, loading.NewBar())

	err := svc.DeleteCourse(context.Background(), "a", Options{UpdateStore: true})
	if !errors.Is(err, cascadeErr) {
		t.Fatalf("err = %v, want the cascade failure", err)
	}
	if len(docs.calls) != 0 {
		t.Fatalf("course document deleted despite failed cascade: %v", docs.calls)
	}
	if len(courses.Courses()) != 1 {
		t.Fatal("cache mutated despite failed cascade")
	}
}

func TestDeleteCourseCascadeRunsBeforeParentDelete(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var order []string
	docs := &fakeStore{
		deleteFn: func(ctx context.Context, ref docstore.Ref) error {
			order = append(order, "course")
			return nil
		},
	}
	courses := store.NewCourseStore()
	courses.SetCourses([]model.Course{{ID: "a", CreatedAt: t0}})
	chapters := &fakeChapters{onCascade: func() { order = append(order, "chapters") }}
	svc := newCourseService(docs, signedInGate(), courses, chapters, loading.NewBar())

	if err := svc.DeleteCourse(context.Background(), "a", Options{UpdateStore: true}); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}

	if len(order) != 2 || order[0] != "chapters" || order[1] != "course" {
		t.Fatalf("delete order = %v, want [chapters course]", order)
	}
	if len(courses.Courses()) != 0 {
		t.Fatal("cache entry not removed")
	}
}
