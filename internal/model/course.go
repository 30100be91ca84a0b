package model

import "time"

// CourseStatus orders courses in the UI: draft first, archived last.
type CourseStatus int

const (
	StatusDraft    CourseStatus = 0
	StatusActive   CourseStatus = 1
	StatusArchived CourseStatus = 2
)

// Course represents a course owned by the signed-in user.
type Course struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Status    CourseStatus `json:"status"`
	CoverID   int          `json:"coverId"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewCourse is the input for course creation. The server assigns the id,
// creation timestamp and cover.
type NewCourse struct {
	Name   string       `json:"name" validate:"required"`
	Status CourseStatus `json:"status" validate:"min=0,max=2"`
}

// CoursePatch is a field-level-optional partial update. A nil field is left
// untouched; a set field is applied even when it holds the zero value, so
// StatusDraft can be patched in explicitly.
type CoursePatch struct {
	Name    *string       `json:"name,omitempty"`
	Status  *CourseStatus `json:"status,omitempty"`
	CoverID *int          `json:"coverId,omitempty"`
}

// Fields returns the set fields as a document patch.
func (p CoursePatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Status != nil {
		fields["status"] = int(*p.Status)
	}
	if p.CoverID != nil {
		fields["coverId"] = *p.CoverID
	}
	return fields
}
