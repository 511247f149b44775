package model

// User is the only entity of the service. Phone and ProfilePic are
// nullable and encode as JSON null when absent.
type User struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string  `gorm:"not null" json:"name"`
	Email      string  `gorm:"uniqueIndex;not null" json:"email"`
	Phone      *string `json:"phone"`
	ProfilePic *string `json:"profile_pic"` // Relative path into the upload directory, e.g. /uploads/x.png
}
