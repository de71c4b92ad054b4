package commonrepo

import "time"

// Mode 各PO内嵌的公共字段。ID为自增主键，时间戳由gorm维护。
type Mode struct {
	ID        uint64    `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt time.Time `gorm:"index;autoUpdateTime"`
}
