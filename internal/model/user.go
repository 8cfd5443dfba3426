package model

type UserRole string

const (
	Student UserRole = "student"
	Creator UserRole = "creator"
	Admin   UserRole = "admin"
)

// User 账号记录，ExternalID 对应身份服务签发的 subject
// swagger:model User
type User struct {
	BaseModel
	ExternalID string          `gorm:"size:191;uniqueIndex;not null" json:"externalId"`
	Name       string          `gorm:"size:100" json:"name"`
	Email      string          `gorm:"size:191" json:"email"`
	Role       UserRole        `gorm:"size:20;default:'student'" json:"role"`
	Profile    *CreatorProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// CreatorProfile 讲师资料，每个用户最多一份
type CreatorProfile struct {
	BaseModel
	UserID      uint   `gorm:"uniqueIndex;not null" json:"userId"`
	DisplayName string `gorm:"size:100" json:"displayName"`
	Headline    string `gorm:"size:255" json:"headline"`
	Bio         string `gorm:"type:text" json:"bio"`
}

func (CreatorProfile) TableName() string {
	return "creator_profiles"
}
