package models

import (
	"time"
)

// Budget 预算模型
// amount 由用户设置；spent/remaining 由预算账本维护，任何修改后必须满足
// remaining == amount - spent。每个 (user_id, category_id) 至多一条预算。
type Budget struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index;not null"`
	CategoryID uint      `json:"category_id" gorm:"index;not null"`
	Amount     float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	Spent      float64   `json:"spent" gorm:"type:decimal(10,2);not null;default:0"`
	Remaining  float64   `json:"remaining" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `json:"-" gorm:"foreignKey:UserID"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}

// Consistent 检查 remaining == amount - spent 是否成立
func (b *Budget) Consistent() bool {
	return b.Remaining == b.Amount-b.Spent
}
