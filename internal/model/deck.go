package model

import (
	"time"

	"gorm.io/gorm"
)

type Deck struct {
	ID                       string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID                   string         `gorm:"type:varchar(64);not null;index" json:"-"`
	Title                    string         `gorm:"size:200;not null" json:"title" validate:"required,max=200"`
	Description              *string        `gorm:"type:text" json:"description,omitempty" validate:"omitempty,max=2000"`
	ParentID                 *string        `gorm:"type:varchar(36);index" json:"parentId"`
	IsSubdeck                bool           `gorm:"not null" json:"isSubdeck"`
	AvailableForPracticeTest bool           `gorm:"not null" json:"availableForPracticeTest"`
	IsPastPaper              bool           `gorm:"not null" json:"isPastPaper"`
	Position                 int            `gorm:"not null" json:"-"`
	CreatedAt                time.Time      `json:"-"`
	UpdatedAt                time.Time      `json:"-"`
	DeletedAt                gorm.DeletedAt `gorm:"index" json:"-"`
}

// ParentKey returns the parent id, or "" for a root deck.
func (d *Deck) ParentKey() string {
	if d.ParentID == nil {
		return ""
	}
	return *d.ParentID
}

// SetParent moves the deck under parentID ("" makes it a root) and keeps IsSubdeck in sync.
func (d *Deck) SetParent(parentID string) {
	if parentID == "" {
		d.ParentID = nil
		d.IsSubdeck = false
		return
	}
	p := parentID
	d.ParentID = &p
	d.IsSubdeck = true
}

func (d *Deck) BeforeSave(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = NewID()
	}
	d.IsSubdeck = d.ParentID != nil
	return nil
}
