package model

import "time"

// Chapter represents a chapter nested under a course.
type Chapter struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewChapter is the input for chapter creation.
type NewChapter struct {
	Name    string `json:"name" validate:"required"`
	Content string `json:"content"`
}

// ChapterPatch is a field-level-optional partial update, same contract as
// CoursePatch.
type ChapterPatch struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Fields returns the set fields as a document patch.
func (p ChapterPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Content != nil {
		fields["content"] = *p.Content
	}
	return fields
}
