package domain

import (
	"time"
)

const (
	EntityTypeService        = "Service"
	EntityTypeNews           = "News"
	EntityTypeEvent          = "Event"
	EntityTypeAuditRetention = "AuditRetention"
)

type ServiceIdentifier string

// Service is one entry of the medical services directory: a clinic,
// practice, pharmacy or other point of care that the platform lists.
type Service struct {
	BaseModel

	Identifier ServiceIdentifier `gorm:"primaryKey;column:identifier"`
	Title      string
	Summary    string
	Text       string
	Specialty  string `gorm:"index;column:specialty"`

	Address string
	Phone   string
	Email   string
	Website string

	Published         *time.Time `gorm:"index;column:published"`
	UnpublishedReason string
}

// IsPublished returns true if the service entry is visible on the public API.
func (s *Service) IsPublished() bool {
	return s.Published != nil
}

type NewsIdentifier string

// NewsArticle is a news post shown on the platform website.
type NewsArticle struct {
	BaseModel

	Identifier NewsIdentifier `gorm:"primaryKey;column:identifier"`
	Title      string
	Teaser     string
	Text       string

	Published *time.Time `gorm:"index;column:published"`
}

func (n *NewsArticle) IsPublished() bool {
	return n.Published != nil
}

type EventIdentifier string

// CommunityEvent is a health-related event (screening day, lecture, ...) with
// a date and venue.
type CommunityEvent struct {
	BaseModel

	Identifier EventIdentifier `gorm:"primaryKey;column:identifier"`
	Title      string
	Text       string
	Venue      string

	StartsAt time.Time `gorm:"index;column:starts_at"`
	EndsAt   time.Time `gorm:"column:ends_at"`

	Published *time.Time `gorm:"index;column:published"`
}

func (e *CommunityEvent) IsPublished() bool {
	return e.Published != nil
}
