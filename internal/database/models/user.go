package models

type User struct {
	Base
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// Moderators may accept or reject organizations.
	IsModerator bool `gorm:"default:false" json:"is_moderator"`

	HasAcceptedTerms bool `gorm:"default:true" json:"has_accepted_terms"`
}

func (User) TableName() string {
	return "users"
}
