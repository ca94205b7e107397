package models

import (
	"time"

	"github.com/medinfohub/med-portal/internal/domain"
)

// Error represents an error response.
type Error struct {
	Code    int    `json:"Code"`              // HTTP status code.
	Message string `json:"Message"`           // Error message.
	Details string `json:"Details,omitempty"` // Additional error details.
}

// region audit

// AuditEvent represents one tamper-evident audit record.
type AuditEvent struct {
	Id            string `json:"Id"`
	EventType     string `json:"EventType"`
	EntityType    string `json:"EntityType"`
	EntityId      string `json:"EntityId"`
	UserId        string `json:"UserId"`
	UserName      string `json:"UserName,omitempty"`
	IpAddress     string `json:"IpAddress,omitempty"`
	Timestamp     string `json:"Timestamp"`
	Reason        string `json:"Reason,omitempty"`
	OldValues     string `json:"OldValues,omitempty"`
	NewValues     string `json:"NewValues,omitempty"`
	CorrelationId string `json:"CorrelationId,omitempty"`
	Signed        bool   `json:"Signed"`
	IsCritical    bool   `json:"IsCritical"`
}

func NewAuditEvent(src *domain.AuditEvent) AuditEvent {
	return AuditEvent{
		Id:            src.Id,
		EventType:     string(src.EventType),
		EntityType:    src.EntityType,
		EntityId:      src.EntityId,
		UserId:        src.UserId,
		UserName:      src.UserName,
		IpAddress:     src.IpAddress,
		Timestamp:     src.Timestamp.UTC().Format(time.RFC3339Nano),
		Reason:        src.Reason,
		OldValues:     src.OldValues,
		NewValues:     src.NewValues,
		CorrelationId: src.CorrelationId,
		Signed:        src.IsSigned(),
		IsCritical:    src.IsCritical,
	}
}

func NewAuditEvents(src []domain.AuditEvent) []AuditEvent {
	events := make([]AuditEvent, len(src))
	for i := range src {
		events[i] = NewAuditEvent(&src[i])
	}

	return events
}

// IntegrityViolation describes one tampered audit record.
type IntegrityViolation struct {
	EventId           string `json:"EventId"`
	ExpectedSignature string `json:"ExpectedSignature,omitempty"`
	ActualSignature   string `json:"ActualSignature,omitempty"`
	Description       string `json:"Description"`
}

// IntegrityReport is the result of re-verifying an entity's audit trail.
type IntegrityReport struct {
	EntityType     string               `json:"EntityType"`
	EntityId       string               `json:"EntityId"`
	TotalEvents    int                  `json:"TotalEvents"`
	ValidEvents    int                  `json:"ValidEvents"`
	InvalidEvents  int                  `json:"InvalidEvents"`
	UnsignedEvents int                  `json:"UnsignedEvents"`
	Intact         bool                 `json:"Intact"`
	CheckedAt      string               `json:"CheckedAt"`
	Violations     []IntegrityViolation `json:"Violations,omitempty"`
}

func NewIntegrityReport(src *domain.IntegrityReport) IntegrityReport {
	violations := make([]IntegrityViolation, len(src.Violations))
	for i, violation := range src.Violations {
		violations[i] = IntegrityViolation{
			EventId:           violation.EventId,
			ExpectedSignature: violation.ExpectedSignature,
			ActualSignature:   violation.ActualSignature,
			Description:       violation.Description,
		}
	}

	return IntegrityReport{
		EntityType:     src.EntityType,
		EntityId:       src.EntityId,
		TotalEvents:    src.TotalEvents,
		ValidEvents:    src.ValidEvents,
		InvalidEvents:  src.InvalidEvents,
		UnsignedEvents: src.UnsignedEvents,
		Intact:         src.IsIntact(),
		CheckedAt:      src.CheckedAt.UTC().Format(time.RFC3339),
		Violations:     violations,
	}
}

// endregion audit

// region directory

// Service represents one entry of the medical services directory.
type Service struct {
	Identifier string `json:"Identifier"`
	Title      string `json:"Title"`
	Summary    string `json:"Summary,omitempty"`
	Text       string `json:"Text,omitempty"`
	Specialty  string `json:"Specialty,omitempty"`

	Address string `json:"Address,omitempty"`
	Phone   string `json:"Phone,omitempty"`
	Email   string `json:"Email,omitempty"`
	Website string `json:"Website,omitempty"`

	Published         bool   `json:"Published"`
	UnpublishedReason string `json:"UnpublishedReason,omitempty"`
}

func NewService(src *domain.Service) Service {
	return Service{
		Identifier:        string(src.Identifier),
		Title:             src.Title,
		Summary:           src.Summary,
		Text:              src.Text,
		Specialty:         src.Specialty,
		Address:           src.Address,
		Phone:             src.Phone,
		Email:             src.Email,
		Website:           src.Website,
		Published:         src.IsPublished(),
		UnpublishedReason: src.UnpublishedReason,
	}
}

func NewServices(src []domain.Service) []Service {
	services := make([]Service, len(src))
	for i := range src {
		services[i] = NewService(&src[i])
	}

	return services
}

// NewDomainService converts an API service model back to its domain representation.
func NewDomainService(src *Service) *domain.Service {
	return &domain.Service{
		Identifier: domain.ServiceIdentifier(src.Identifier),
		Title:      src.Title,
		Summary:    src.Summary,
		Text:       src.Text,
		Specialty:  src.Specialty,
		Address:    src.Address,
		Phone:      src.Phone,
		Email:      src.Email,
		Website:    src.Website,
	}
}

// NewsArticle represents a news post.
type NewsArticle struct {
	Identifier string `json:"Identifier"`
	Title      string `json:"Title"`
	Teaser     string `json:"Teaser,omitempty"`
	Text       string `json:"Text,omitempty"`
	Published  bool   `json:"Published"`
}

func NewNewsArticle(src *domain.NewsArticle) NewsArticle {
	return NewsArticle{
		Identifier: string(src.Identifier),
		Title:      src.Title,
		Teaser:     src.Teaser,
		Text:       src.Text,
		Published:  src.IsPublished(),
	}
}

func NewNewsArticles(src []domain.NewsArticle) []NewsArticle {
	articles := make([]NewsArticle, len(src))
	for i := range src {
		articles[i] = NewNewsArticle(&src[i])
	}

	return articles
}

func NewDomainNewsArticle(src *NewsArticle) *domain.NewsArticle {
	article := &domain.NewsArticle{
		Identifier: domain.NewsIdentifier(src.Identifier),
		Title:      src.Title,
		Teaser:     src.Teaser,
		Text:       src.Text,
	}
	if src.Published {
		now := time.Now()
		article.Published = &now
	}

	return article
}

// CommunityEvent represents a health-related community event.
type CommunityEvent struct {
	Identifier string    `json:"Identifier"`
	Title      string    `json:"Title"`
	Text       string    `json:"Text,omitempty"`
	Venue      string    `json:"Venue,omitempty"`
	StartsAt   time.Time `json:"StartsAt"`
	EndsAt     time.Time `json:"EndsAt"`
	Published  bool      `json:"Published"`
}

func NewCommunityEvent(src *domain.CommunityEvent) CommunityEvent {
	return CommunityEvent{
		Identifier: string(src.Identifier),
		Title:      src.Title,
		Text:       src.Text,
		Venue:      src.Venue,
		StartsAt:   src.StartsAt,
		EndsAt:     src.EndsAt,
		Published:  src.IsPublished(),
	}
}

func NewCommunityEvents(src []domain.CommunityEvent) []CommunityEvent {
	events := make([]CommunityEvent, len(src))
	for i := range src {
		events[i] = NewCommunityEvent(&src[i])
	}

	return events
}

func NewDomainCommunityEvent(src *CommunityEvent) *domain.CommunityEvent {
	event := &domain.CommunityEvent{
		Identifier: domain.EventIdentifier(src.Identifier),
		Title:      src.Title,
		Text:       src.Text,
		Venue:      src.Venue,
		StartsAt:   src.StartsAt,
		EndsAt:     src.EndsAt,
	}
	if src.Published {
		now := time.Now()
		event.Published = &now
	}

	return event
}

// endregion directory
