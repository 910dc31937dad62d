package profile

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Profile é mantido pelo serviço de autenticação hospedado; este núcleo
// apenas o lê.
type Profile struct {
	Id        ulid.ULID `gorm:"type:varchar(26);primaryKey" json:"id"`
	FullName  string    `gorm:"type:varchar(100);not null" json:"fullName"`
	AvatarURL string    `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;not null" json:"createdAt"`
}

func (Profile) TableName() string {
	return "profiles"
}
