// Package news manages news articles and the photos and videos attached to them.
package news

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/media"
	"github.com/kadikoy/service/internal/sport"
)

// Type is the kind of news item. Values are persisted as integers.
type Type int

const (
	TypeInfo Type = iota
	TypeScoreUpdate
	TypeSpecialDay
)

func (t Type) String() string {
	switch t {
	case TypeInfo:
		return "Info"
	case TypeScoreUpdate:
		return "ScoreUpdate"
	case TypeSpecialDay:
		return "SpecialDay"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Valid reports whether t is a known news type.
func (t Type) Valid() bool { return t >= TypeInfo && t <= TypeSpecialDay }

const maxTitleLen = 200

// Article is a news item with its media in display order.
type Article struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	SportType   sport.Type     `json:"sportType"`
	NewsType    Type           `json:"newsType"`
	PublishedAt time.Time      `json:"publishedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
	IsActive    bool           `json:"isActive"`
	Media       []media.Record `json:"mediaFiles"`
}

// MarshalJSON adds the enum names next to their numeric values.
func (a Article) MarshalJSON() ([]byte, error) {
	type plain Article
	p := plain(a)
	if p.Media == nil {
		p.Media = []media.Record{}
	}
	return json.Marshal(struct {
		plain
		SportTypeName string `json:"sportTypeName"`
		NewsTypeName  string `json:"newsTypeName"`
	}{p, a.SportType.String(), a.NewsType.String()})
}

// Filter narrows a list query. Nil fields match everything.
type Filter struct {
	SportType *sport.Type
	NewsType  *Type
	IsActive  *bool
}

// CreateInput holds the fields of a new article.
type CreateInput struct {
	Title       string     `json:"title"       example:"Season opener"`
	Content     string     `json:"content"     example:"The basketball team won 78-71."`
	SportType   sport.Type `json:"sportType"   example:"2"`
	NewsType    Type       `json:"newsType"    example:"1"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
}

// Validate checks required fields and enum ranges.
func (in *CreateInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return apperr.Validation("title is required")
	case len(in.Title) > maxTitleLen:
		return apperr.Validationf("title must be at most %d characters", maxTitleLen)
	case strings.TrimSpace(in.Content) == "":
		return apperr.Validation("content is required")
	case !in.SportType.Valid():
		return apperr.Validation("sportType must be between 0 and 3")
	case !in.NewsType.Valid():
		return apperr.Validation("newsType must be between 0 and 2")
	}
	return nil
}

// UpdateInput holds a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string     `json:"title,omitempty"`
	Content     *string     `json:"content,omitempty"`
	SportType   *sport.Type `json:"sportType,omitempty"`
	NewsType    *Type       `json:"newsType,omitempty"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty"`
	IsActive    *bool       `json:"isActive,omitempty"`
}

// Validate checks the fields that are present.
func (in *UpdateInput) Validate() error {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" || len(t) > maxTitleLen {
			return apperr.Validationf("title must be 1 to %d characters", maxTitleLen)
		}
		in.Title = &t
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		return apperr.Validation("content must not be empty")
	}
	if in.SportType != nil && !in.SportType.Valid() {
		return apperr.Validation("sportType must be between 0 and 3")
	}
	if in.NewsType != nil && !in.NewsType.Valid() {
		return apperr.Validation("newsType must be between 0 and 2")
	}
	return nil
}

// Apply copies the present fields onto a.
func (in UpdateInput) Apply(a *Article) {
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.SportType != nil {
		a.SportType = *in.SportType
	}
	if in.NewsType != nil {
		a.NewsType = *in.NewsType
	}
	if in.PublishedAt != nil {
		a.PublishedAt = in.PublishedAt.UTC()
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
}

// SportCount is the number of news photos of one sport type.
type SportCount struct {
	SportType     sport.Type `json:"sportType"`
	SportTypeName string     `json:"sportTypeName"`
	Count         int        `json:"count"`
}

// PhotoStats summarizes news photos.
type PhotoStats struct {
	TotalPhotos int          `json:"totalPhotos"`
	BySportType []SportCount `json:"bySportType"`
}
