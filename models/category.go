package models

import (
	"time"
)

// Category 消费类别（按用户隔离，首次使用时惰性创建）
// 同一用户下名称唯一；删除时要释放名称并将关联消费记录的 category_id 置空，因此不使用软删除
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_category_name"`
	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_user_category_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
	Budget    *Budget   `json:"budget,omitempty" gorm:"foreignKey:CategoryID"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}
