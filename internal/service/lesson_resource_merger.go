package service

import (
	"bytes"
	"encoding/json"

	"course_authoring_backend/internal/model"

	"gorm.io/datatypes"
)

const (
	resourceKeyCloudinaryData = "cloudinaryData"
	resourceKeyVideoProvider  = "videoProvider"
)

// LessonResourceMerger 合并课时的媒体元数据：计算默认值 < 显式 resources
type LessonResourceMerger struct {
	DefaultProvider string
	Locator         MediaLocator
}

func NewLessonResourceMerger(defaultProvider string, locator MediaLocator) *LessonResourceMerger {
	if defaultProvider == "" {
		defaultProvider = "cloudinary"
	}
	return &LessonResourceMerger{DefaultProvider: defaultProvider, Locator: locator}
}

// MergeResources layers the caller's explicit resources over the computed
// defaults, key by key.
func (m *LessonResourceMerger) MergeResources(d LessonDraft) datatypes.JSONMap {
	resources := datatypes.JSONMap{}

	if raw, ok := compactPayload(d.CloudinaryData); ok {
		resources[resourceKeyCloudinaryData] = raw
	}
	resources[resourceKeyVideoProvider] = m.videoProvider(d)

	for k, v := range d.Resources {
		resources[k] = v
	}
	return resources
}

func (m *LessonResourceMerger) videoProvider(d LessonDraft) string {
	if d.VideoProvider != "" {
		return d.VideoProvider
	}
	if d.VideoFile != nil && d.VideoFile.Provider != "" {
		return d.VideoFile.Provider
	}
	return m.DefaultProvider
}

// ResolveVideoURL: explicit url > videoFile url > stored object key > "".
func (m *LessonResourceMerger) ResolveVideoURL(d LessonDraft) string {
	if d.VideoURL != "" {
		return d.VideoURL
	}
	if d.VideoFile == nil {
		return ""
	}
	if d.VideoFile.URL != "" {
		return d.VideoFile.URL
	}
	if d.VideoFile.Key != "" && m.Locator != nil {
		return m.Locator.PublicURL(d.VideoFile.Key)
	}
	return ""
}

// Lesson builds the persisted lesson for the draft at the given 1-based position.
func (m *LessonResourceMerger) Lesson(d LessonDraft, order int) model.Lesson {
	duration := 0
	if d.Duration != nil {
		duration = *d.Duration
	}
	lessonType := d.Type
	if lessonType == "" {
		lessonType = model.DefaultLessonType
	}

	return model.Lesson{
		Title:       d.Title,
		Description: d.Description,
		Content:     d.Content,
		VideoURL:    m.ResolveVideoURL(d),
		Duration:    duration,
		Order:       order,
		Type:        lessonType,
		IsPreview:   d.IsPreview,
		Resources:   m.MergeResources(d),
	}
}

func compactPayload(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed), true
	}
	return buf.String(), true
}
