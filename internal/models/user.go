package models

import "time"

type UserRole string

const (
	RoleAdmin                UserRole = "admin"
	RoleMaterialManager      UserRole = "material_manager"
	RoleFinishedGoodsManager UserRole = "finished_goods_manager"
	RoleSalesDirector        UserRole = "sales_director"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleMaterialManager, RoleFinishedGoodsManager, RoleSalesDirector:
		return true
	}
	return false
}

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:40;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
