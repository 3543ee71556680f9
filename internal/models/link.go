package models

import (
	"time"
)

// Link is a short-link record. The same struct is persisted by every store:
// gorm keeps events in their own table, Mongo embeds them and Badger keys them
// per link.
type Link struct {
	ShortID     string     `gorm:"primaryKey;size:64" json:"shortId" bson:"_id"`
	CustomAlias *string    `gorm:"uniqueIndex;size:64" json:"customAlias,omitempty" bson:"custom_alias,omitempty"`
	LongURL     string     `gorm:"not null;type:text" json:"longUrl" bson:"long_url"`
	OwnerRef    string     `gorm:"not null;index;size:64" json:"user" bson:"owner_ref"`
	IsActive    bool       `gorm:"not null;index" json:"isActive" bson:"is_active"`
	ExpiresAt   *time.Time `json:"expiresAt" bson:"expires_at,omitempty"`
	ClickCount  int64      `gorm:"column:click_count;not null;default:0" json:"clicks" bson:"click_count"`
	CreatedAt   time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updated_at"`

	Events []AnalyticsEvent `gorm:"foreignKey:LinkShortID;references:ShortID;constraint:OnDelete:CASCADE" json:"analytics" bson:"analytics"`
}

func (Link) TableName() string {
	return "links"
}

// Expired reports whether the link has an expiry strictly before now.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// AnalyticsEvent is one recorded visit. Country and City are nil when the
// geo lookup had nothing for the source address.
type AnalyticsEvent struct {
	ID          uint      `gorm:"primaryKey" json:"-" bson:"-"`
	LinkShortID string    `gorm:"not null;index;size:64" json:"-" bson:"-"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp" bson:"timestamp"`
	SourceIP    string    `gorm:"size:45" json:"ip" bson:"ip"`
	UserAgent   string    `gorm:"type:text" json:"userAgent" bson:"user_agent"`
	Referrer    string    `gorm:"size:2048;not null" json:"referrer" bson:"referrer"`
	Country     *string   `gorm:"size:100" json:"country,omitempty" bson:"country,omitempty"`
	City        *string   `gorm:"size:100" json:"city,omitempty" bson:"city,omitempty"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
