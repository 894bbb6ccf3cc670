package model

import (
	"time"
)

// CreatedAt 只在建立時寫入，之後的更新不會覆蓋
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:now();index;<-:create" json:"created_at"`
	UpdatedAt time.Time `gorm:"null" json:"updated_at"`
}
