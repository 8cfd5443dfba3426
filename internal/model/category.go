package model

// Category 课程分类，首次被引用时按 slug 懒创建
type Category struct {
	BaseModel
	Slug        string `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string {
	return "categories"
}
