package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/docstore"
	"app/internal/loading"
	"app/internal/model"
	"app/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

func newChapterService(docs docstore.Store, chapters *store.ChapterStore) ChapterService {
	return NewChapterService(docs, signedInGate(), chapters, loading.NewBar(), validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func chapterSnapshot(id, name string, createdAt time.Time) docstore.Snapshot {
	return docstore.Snapshot{
		ID:     id,
		Exists: true,
		Data: map[string]any{
			"name":      name,
			"content":   "text",
			"createdAt": createdAt,
		},
	}
}

func TestFetchChaptersSortsByCreatedAt(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := &fakeStore{
		queryFn: func(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
			if collection != "users/owner-1/courses/c1/chapters" {
				t.Fatalf("unexpected collection %s", collection)
			}
			return []docstore.Snapshot{
				chapterSnapshot("later", "two", t0.Add(time.Hour)),
				chapterSnapshot("earlier", "one", t0),
			}, nil
		},
	}
	chapters := store.NewChapterStore()
	svc := newChapterService(docs, chapters)

	got, err := svc.FetchChapters(context.Background(), "c1", Options{})
	if err != nil {
		t.Fatalf("FetchChapters: %v", err)
	}
	if len(got) != 2 || got[0].ID != "earlier" || got[1].ID != "later" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestDeleteChaptersForCourseDeletesAllChildren(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := &fakeStore{
		queryFn: func(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
			return []docstore.Snapshot{
				chapterSnapshot("ch1", "one", t0),
				chapterSnapshot("ch2", "two", t0),
			}, nil
		},
	}
	svc := newChapterService(docs, store.NewChapterStore())

	if err := svc.DeleteChaptersForCourse(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteChaptersForCourse: %v", err)
	}

	want := []string{
		"query users/owner-1/courses/c1/chapters",
		"delete users/owner-1/courses/c1/chapters/ch1",
		"delete users/owner-1/courses/c1/chapters/ch2",
	}
	if len(docs.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", docs.calls, want)
	}
	for i := range want {
		if docs.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, docs.calls[i], want[i])
		}
	}
}

func TestDeleteChaptersForCourseAbortsOnFirstFailure(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	deleteErr := errors.New("delete rejected")
	deleted := 0
	docs := &fakeStore{
		queryFn: func(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
			return []docstore.Snapshot{
				chapterSnapshot("ch1", "one", t0),
				chapterSnapshot("ch2", "two", t0),
				chapterSnapshot("ch3", "three", t0),
			}, nil
		},
		deleteFn: func(ctx context.Context, ref docstore.Ref) error {
			deleted++
			if ref.ID == "ch2" {
				return deleteErr
			}
			return nil
		},
	}
	svc := newChapterService(docs, store.NewChapterStore())

	err := svc.DeleteChaptersForCourse(context.Background(), "c1")
	if !errors.Is(err, deleteErr) {
		t.Fatalf("err = %v, want the delete failure", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted %d chapters before aborting, want 2", deleted)
	}
}

func TestPostChapterAppendsConfirmedChapter(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := &fakeStore{
		createFn: func(ctx context.Context, collection string, fields map[string]any) (docstore.Ref, error) {
			if _, ok := fields["createdAt"]; !ok {
				t.Fatal("createdAt sentinel not sent")
			}
			return docstore.Ref{Collection: collection, ID: "ch-new"}, nil
		},
		getFn: func(ctx context.Context, ref docstore.Ref) (docstore.Snapshot, error) {
			return chapterSnapshot(ref.ID, "fresh", t0), nil
		},
	}
	chapters := store.NewChapterStore()
	svc := newChapterService(docs, chapters)

	created, err := svc.PostChapter(context.Background(), "c1", model.NewChapter{Name: "fresh"}, Options{})
	if err != nil {
		t.Fatalf("PostChapter: %v", err)
	}
	if created.ID != "ch-new" {
		t.Fatalf("created id = %s", created.ID)
	}
	_, cached := chapters.Chapters()
	if len(cached) != 1 || cached[0].ID != "ch-new" {
		t.Fatalf("cache = %+v", cached)
	}
}

func TestUpdateChapterUnauthenticated(t *testing.T) {
	docs := &fakeStore{}
	svc := NewChapterService(docs, &fakeGate{}, store.NewChapterStore(), loading.NewBar(), validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	name := "x"
	err := svc.UpdateChapter(context.Background(), "c1", "ch1", model.ChapterPatch{Name: &name}, Options{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if len(docs.calls) != 0 {
		t.Fatalf("remote store touched while unauthenticated: %v", docs.calls)
	}
}
