package models

import "time"

// ProjectStatus is the lifecycle state of a tenant project.
type ProjectStatus string

const (
	ProjectDraft  ProjectStatus = "draft"
	ProjectActive ProjectStatus = "active"
)

// Feature is an opt-in capability that gates which actions a project may run.
type Feature string

const (
	FeatureGoogleReviews     Feature = "google_reviews"
	FeatureProfileManagement Feature = "profile_management"
	FeatureSEOContent        Feature = "seo_content"
	FeatureFollowUps         Feature = "follow_ups"
)

// FeatureCatalog lists every feature a project can enable.
var FeatureCatalog = []Feature{
	FeatureGoogleReviews,
	FeatureProfileManagement,
	FeatureSEOContent,
	FeatureFollowUps,
}

// ParseFeature validates a feature name against the catalog.
func ParseFeature(s string) (Feature, bool) {
	for _, f := range FeatureCatalog {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Project represents a tenant's front-desk configuration
type Project struct {
	ID                  string        `json:"id"`
	OwnerID             string        `json:"owner_id"`
	AgentName           string        `json:"agent_name"`
	BusinessName        string        `json:"business_name"`
	BusinessCategory    string        `json:"business_category"`
	BusinessLocation    string        `json:"business_location"`
	BusinessDescription string        `json:"business_description"`
	Features            []Feature     `json:"features"`
	Status              ProjectStatus `json:"status"`

	// Channel credentials. Owned by the project and never handed to the classifier.
	TelegramBotToken   string `json:"-"`
	GoogleAccessToken  string `json:"-"`
	GoogleRefreshToken string `json:"-"`
	GoogleLocationName string `json:"google_location_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasFeature reports whether f is enabled for the project.
func (p *Project) HasFeature(f Feature) bool {
	for _, enabled := range p.Features {
		if enabled == f {
			return true
		}
	}
	return false
}

// IsActive reports whether the project can serve messages.
func (p *Project) IsActive() bool {
	return p.Status == ProjectActive
}

// GoogleConnected reports whether Google Business Profile credentials are stored.
func (p *Project) GoogleConnected() bool {
	return p.GoogleAccessToken != "" && p.GoogleLocationName != ""
}

// TelegramConnected reports whether a Telegram bot token is stored.
func (p *Project) TelegramConnected() bool {
	return p.TelegramBotToken != ""
}

// Persona is the credential-free view of a project used to build prompts.
type Persona struct {
	AgentName           string
	BusinessName        string
	BusinessCategory    string
	BusinessLocation    string
	BusinessDescription string
}

// Persona returns the prompt-safe projection of the project.
func (p *Project) Persona() Persona {
	return Persona{
		AgentName:           p.AgentName,
		BusinessName:        p.BusinessName,
		BusinessCategory:    p.BusinessCategory,
		BusinessLocation:    p.BusinessLocation,
		BusinessDescription: p.BusinessDescription,
	}
}

// ProjectPatch carries the fields to change in an upsert. Nil fields are left untouched.
type ProjectPatch struct {
	OwnerID             *string
	AgentName           *string
	BusinessName        *string
	BusinessCategory    *string
	BusinessLocation    *string
	BusinessDescription *string
	Features            *[]Feature
	Status              *ProjectStatus
	TelegramBotToken    *string
	GoogleAccessToken   *string
	GoogleRefreshToken  *string
	GoogleLocationName  *string
}

// Apply copies the non-nil patch fields onto p.
func (patch ProjectPatch) Apply(p *Project) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&p.OwnerID, patch.OwnerID)
	setString(&p.AgentName, patch.AgentName)
	setString(&p.BusinessName, patch.BusinessName)
	setString(&p.BusinessCategory, patch.BusinessCategory)
	setString(&p.BusinessLocation, patch.BusinessLocation)
	setString(&p.BusinessDescription, patch.BusinessDescription)
	setString(&p.TelegramBotToken, patch.TelegramBotToken)
	setString(&p.GoogleAccessToken, patch.GoogleAccessToken)
	setString(&p.GoogleRefreshToken, patch.GoogleRefreshToken)
	setString(&p.GoogleLocationName, patch.GoogleLocationName)
	if patch.Features != nil {
		p.Features = append([]Feature(nil), (*patch.Features)...)
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
}
