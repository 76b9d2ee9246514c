package models

import (
	"time"

	"gorm.io/gorm"
)

// Expense 消费记录模型
// category_id 可为空：类别随最后一条预算被删除时，数据库外键将其置为 NULL
type Expense struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	CategoryID  *uint          `json:"category_id" gorm:"index"`
	Amount      float64        `json:"amount" gorm:"type:decimal(10,2);not null"`
	Description string         `json:"description" gorm:"size:255"`
	ExpenseDate time.Time      `json:"expense_date" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	User        User           `json:"-" gorm:"foreignKey:UserID"`
	Category    *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// CategoryName 返回所属类别名称，类别已被删除（孤儿记录）时返回空串
func (e *Expense) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return e.Category.Name
}
