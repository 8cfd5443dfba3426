package model

import "gorm.io/datatypes"

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

type CourseStatus string

const (
	StatusDraft     CourseStatus = "draft"
	StatusPublished CourseStatus = "published"
)

const (
	DefaultCourseLevel    = LevelBeginner
	DefaultCourseLanguage = "en"
	DefaultCourseStatus   = StatusDraft
	DefaultLessonType     = "video"
)

// Course 课程聚合根，拥有有序的章节和课时
// swagger:model Course
type Course struct {
	BaseModel
	Title            string       `gorm:"size:255;not null" json:"title"`
	Slug             string       `gorm:"size:255;index" json:"slug"`
	Description      string       `gorm:"type:text" json:"description"`
	LongDescription  string       `gorm:"type:text" json:"longDescription"`
	Price            float64      `gorm:"default:0" json:"price"`
	ThumbnailURL     string       `gorm:"size:512" json:"thumbnailUrl"`
	PreviewVideoURL  string       `gorm:"size:512" json:"previewVideoUrl"`
	Level            CourseLevel  `gorm:"size:20" json:"level"`
	Language         string       `gorm:"size:10" json:"language"`
	Status           CourseStatus `gorm:"size:20;index" json:"status"`
	CreatorID        uint         `gorm:"index;not null" json:"creatorId"`
	CreatorProfileID *uint        `gorm:"index" json:"creatorProfileId,omitempty"`
	CategoryID       uint         `gorm:"index;not null" json:"categoryId"`
	Category         *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Sections         []Section    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"sections"`
}

func (Course) TableName() string {
	return "courses"
}

type Section struct {
	BaseModel
	CourseID    uint     `gorm:"index;not null" json:"courseId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Order       int      `gorm:"not null" json:"order"`
	Lessons     []Lesson `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"lessons"`
}

func (Section) TableName() string {
	return "sections"
}

type Lesson struct {
	BaseModel
	SectionID   uint              `gorm:"index;not null" json:"sectionId"`
	Title       string            `gorm:"size:255;not null" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Content     string            `gorm:"type:text" json:"content"`
	VideoURL    string            `gorm:"size:512" json:"videoUrl"`
	Duration    int               `gorm:"default:0" json:"duration"` // 秒
	Order       int               `gorm:"not null" json:"order"`
	Type        string            `gorm:"size:20" json:"type"`
	IsPreview   bool              `gorm:"default:false" json:"isPreview"`
	Resources   datatypes.JSONMap `json:"resources"`
}

func (Lesson) TableName() string {
	return "lessons"
}
