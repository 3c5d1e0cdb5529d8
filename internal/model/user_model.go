package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	Id           uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string            `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string           `gorm:"type:varchar(255)"`
	FullName     string            `gorm:"type:varchar(255);not null"`
	Provider     string            `gorm:"type:varchar(50);not null;default:'password'"`
	ProviderId   *string           `gorm:"type:varchar(255);index"`
	AvatarURL    *string           `gorm:"type:text"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
