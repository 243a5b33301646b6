package models

import "time"

type Like struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_likes_user_product,priority:1"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:idx_likes_user_product,priority:2;index"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Like) TableName() string { return "likes" }
