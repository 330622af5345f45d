package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a set of users who vote together. The owner is always a
// member; creation and membership handlers maintain that invariant.
type Group struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Owner       User           `gorm:"foreignKey:OwnerID" json:"-"`
	Members     []User         `gorm:"many2many:group_members;" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (g *Group) IsOwner(userID uint) bool {
	return g.OwnerID == userID
}

// IsMember reports whether the user is in the member set. The owner is
// not special-cased: they must actually be a member (they always are,
// since creation adds them and removal of the owner is rejected).
func (g *Group) IsMember(userID uint) bool {
	for _, m := range g.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// GroupInput is used for creating/updating groups
type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Members     []uint `json:"members"`
}

// GroupResponse includes the resolved member list
type GroupResponse struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	OwnerID     uint           `json:"owner_id"`
	Members     []UserResponse `json:"members"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (g *Group) ToResponse() GroupResponse {
	members := make([]UserResponse, len(g.Members))
	for i, m := range g.Members {
		members[i] = m.ToResponse()
	}
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		OwnerID:     g.OwnerID,
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}
}
