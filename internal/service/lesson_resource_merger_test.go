package service

import (
	"context"
	"encoding/json"
	"testing"

	"course_authoring_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

type stubLocator struct{}

func (stubLocator) PublicURL(key string) string { return "https://cdn.example.com/media/" + key }

func (stubLocator) Ping(context.Context) error { return nil }

func TestMergeResourcesExplicitOverridesComputed(t *testing.T) {
	m := NewLessonResourceMerger("", nil)

	got := m.MergeResources(LessonDraft{
		VideoProvider: "vimeo",
		Resources:     map[string]interface{}{"videoProvider": "wistia", "slides": "deck.pdf"},
	})

	assert.Equal(t, "wistia", got["videoProvider"])
	assert.Equal(t, "deck.pdf", got["slides"])
	_, hasPayload := got["cloudinaryData"]
	assert.False(t, hasPayload)
}

func TestMergeResourcesProviderFallback(t *testing.T) {
	m := NewLessonResourceMerger("", nil)

	assert.Equal(t, "cloudinary", m.MergeResources(LessonDraft{})["videoProvider"])
	assert.Equal(t, "mux", m.MergeResources(LessonDraft{VideoFile: &VideoFile{Provider: "mux"}})["videoProvider"])
	assert.Equal(t, "vimeo", m.MergeResources(LessonDraft{
		VideoProvider: "vimeo",
		VideoFile:     &VideoFile{Provider: "mux"},
	})["videoProvider"])

	custom := NewLessonResourceMerger("bunny", nil)
	assert.Equal(t, "bunny", custom.MergeResources(LessonDraft{})["videoProvider"])
}

func TestMergeResourcesSerializesMediaPayload(t *testing.T) {
	m := NewLessonResourceMerger("", nil)

	got := m.MergeResources(LessonDraft{
		CloudinaryData: json.RawMessage(`{ "public_id": "abc",  "duration": 12.5 }`),
	})
	assert.Equal(t, `{"public_id":"abc","duration":12.5}`, got["cloudinaryData"])

	null := m.MergeResources(LessonDraft{CloudinaryData: json.RawMessage(`null`)})
	_, ok := null["cloudinaryData"]
	assert.False(t, ok)
}

func TestResolveVideoURLPrecedence(t *testing.T) {
	m := NewLessonResourceMerger("", stubLocator{})

	tests := []struct {
		name  string
		draft LessonDraft
		want  string
	}{
		{"explicit url", LessonDraft{VideoURL: "https://a/v.mp4", VideoFile: &VideoFile{URL: "https://b/v.mp4"}}, "https://a/v.mp4"},
		{"video file url", LessonDraft{VideoFile: &VideoFile{URL: "https://b/v.mp4", Key: "k"}}, "https://b/v.mp4"},
		{"stored key", LessonDraft{VideoFile: &VideoFile{Key: "lessons/1.mp4"}}, "https://cdn.example.com/media/lessons/1.mp4"},
		{"nothing", LessonDraft{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ResolveVideoURL(tt.draft))
		})
	}
}

func TestLessonDefaults(t *testing.T) {
	m := NewLessonResourceMerger("", nil)

	lesson := m.Lesson(LessonDraft{Title: "Setup"}, 3)
	assert.Equal(t, "Setup", lesson.Title)
	assert.Equal(t, 3, lesson.Order)
	assert.Equal(t, 0, lesson.Duration)
	assert.Equal(t, model.DefaultLessonType, lesson.Type)

	duration := 90
	quiz := m.Lesson(LessonDraft{Title: "Quiz", Type: "quiz", Duration: &duration, IsPreview: true}, 1)
	assert.Equal(t, 90, quiz.Duration)
	assert.Equal(t, "quiz", quiz.Type)
	assert.True(t, quiz.IsPreview)
}
