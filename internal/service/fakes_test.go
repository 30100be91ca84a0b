package service

import (
	"context"
	"fmt"

	"app/internal/authgate"
	"app/internal/docstore"
)

// fakeGate satisfies the gate with a fixed snapshot; only the methods the
// course/chapter services touch are implemented.
type fakeGate struct {
	authgate.Gate
	acc *authgate.Account
}

func (g *fakeGate) CurrentUser() *authgate.Account {
	return g.acc
}

func signedInGate() *fakeGate {
	return &fakeGate{acc: &authgate.Account{ID: "owner-1", Email: "owner@example.com"}}
}

// fakeStore records calls and delegates to optional hooks.
type fakeStore struct {
	createFn func(ctx context.Context, collection string, fields map[string]any) (docstore.Ref, error)
	getFn    func(ctx context.Context, ref docstore.Ref) (docstore.Snapshot, error)
	queryFn  func(ctx context.Context, collection string) ([]docstore.Snapshot, error)
	updateFn func(ctx context.Context, ref docstore.Ref, fields map[string]any) error
	deleteFn func(ctx context.Context, ref docstore.Ref) error

	calls []string
}

func (f *fakeStore) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeStore) CreateDocument(ctx context.Context, collection string, fields map[string]any) (docstore.Ref, error) {
	f.record("create %s", collection)
	if f.createFn != nil {
		return f.createFn(ctx, collection, fields)
	}
	return docstore.Ref{Collection: collection, ID: "new-id"}, nil
}

func (f *fakeStore) GetDocument(ctx context.Context, ref docstore.Ref) (docstore.Snapshot, error) {
	f.record("get %s/%s", ref.Collection, ref.ID)
	if f.getFn != nil {
		return f.getFn(ctx, ref)
	}
	return docstore.Snapshot{ID: ref.ID, Exists: false}, nil
}

func (f *fakeStore) QueryCollection(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	f.record("query %s", collection)
	if f.queryFn != nil {
		return f.queryFn(ctx, collection)
	}
	return nil, nil
}

func (f *fakeStore) UpdateDocument(ctx context.Context, ref docstore.Ref, fields map[string]any) error {
	f.record("update %s/%s", ref.Collection, ref.ID)
	if f.updateFn != nil {
		return f.updateFn(ctx, ref, fields)
	}
	return nil
}

func (f *fakeStore) DeleteDocument(ctx context.Context, ref docstore.Ref) error {
	f.record("delete %s/%s", ref.Collection, ref.ID)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, ref)
	}
	return nil
}

// fakeChapters stands in for the cascade dependency of the course service.
type fakeChapters struct {
	ChapterService
	cascadeErr    error
	cascadeCalled int
	onCascade     func()
}

func (f *fakeChapters) DeleteChaptersForCourse(ctx context.Context, courseID string) error {
	f.cascadeCalled++
	if f.onCascade != nil {
		f.onCascade()
	}
	return f.cascadeErr
}
