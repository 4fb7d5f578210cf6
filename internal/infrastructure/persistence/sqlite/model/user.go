package model

type User struct {
	UserID    string `gorm:"column:user_id;type:text;primaryKey"`
	Username  string `gorm:"column:username;type:text;not null;uniqueIndex"`
	Active    bool   `gorm:"column:active;not null;default:1"`
	CanAudit  bool   `gorm:"column:can_audit;not null;default:0"`
	Protected bool   `gorm:"column:protected;not null;default:0"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (User) TableName() string {
	return "users"
}
