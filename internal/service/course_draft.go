package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"course_authoring_backend/internal/util"
)

// CourseDraft 创作者提交的课程草稿，只在一次导入中被消费
type CourseDraft struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Price           *float64       `json:"price,omitempty"`
	Category        string         `json:"category"`
	ThumbnailURL    string         `json:"thumbnailUrl,omitempty"`
	PreviewVideoURL string         `json:"previewVideoUrl,omitempty"`
	Sections        []SectionDraft `json:"sections,omitempty"`
}

type SectionDraft struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Lessons     []LessonDraft `json:"lessons,omitempty"`
}

// VideoFile describes an already uploaded video asset.
type VideoFile struct {
	URL      string `json:"url,omitempty"`
	Provider string `json:"provider,omitempty"`
	Key      string `json:"key,omitempty"`
}

type LessonDraft struct {
	Title          string                 `json:"title"`
	Description    string                 `json:"description,omitempty"`
	Content        string                 `json:"content,omitempty"`
	VideoURL       string                 `json:"videoUrl,omitempty"`
	VideoFile      *VideoFile             `json:"videoFile,omitempty"`
	Duration       *int                   `json:"duration,omitempty"`
	Type           string                 `json:"type,omitempty"`
	IsPreview      bool                   `json:"isPreview,omitempty"`
	CloudinaryData json.RawMessage        `json:"cloudinaryData,omitempty" swaggertype:"object"`
	VideoProvider  string                 `json:"videoProvider,omitempty"`
	Resources      map[string]interface{} `json:"resources,omitempty"`
}

// Normalize trims the required top-level fields in place.
func (d *CourseDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
}

// Validate 在任何写操作之前拒绝不完整的草稿
func (d *CourseDraft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(d.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", util.ErrValidation, strings.Join(missing, ", "))
	}

	if d.Price != nil && *d.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", util.ErrValidation)
	}

	for i, section := range d.Sections {
		if strings.TrimSpace(section.Title) == "" {
			return fmt.Errorf("%w: sections[%d].title is required", util.ErrValidation, i)
		}
		for j, lesson := range section.Lessons {
			if strings.TrimSpace(lesson.Title) == "" {
				return fmt.Errorf("%w: sections[%d].lessons[%d].title is required", util.ErrValidation, i, j)
			}
			if lesson.Duration != nil && *lesson.Duration < 0 {
				return fmt.Errorf("%w: sections[%d].lessons[%d].duration must not be negative", util.ErrValidation, i, j)
			}
		}
	}
	return nil
}
