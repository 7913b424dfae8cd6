package model

import "time"

// ContactStatus represents a contact's enrichment state.
type ContactStatus string

// Contact statuses.
const (
	ContactSourced          ContactStatus = "Sourced"
	ContactPendingEnrich    ContactStatus = "Pending Enrichment"
	ContactEnriched         ContactStatus = "Enriched"
	ContactFailedEnrichment ContactStatus = "Failed Enrichment"
)

// CampaignType is the outreach channel a contact is assigned to.
type CampaignType string

// Campaign types.
const (
	CampaignEmail    CampaignType = "email"
	CampaignLinkedIn CampaignType = "linkedin"
)

// Campaign assignment states.
const (
	CampaignReadyToAssign = "Ready to Assign"
	CampaignInCampaign    = "In Campaign"
)

// OutreachMessage is the generated (and user-editable) outreach draft.
type OutreachMessage struct {
	SubjectLine string `json:"subject_line"`
	EmailBody   string `json:"email_body"`
}

// Contact represents a sourced person at a pipeline company. Email absence is
// meaningful: a contact without an email is eligible for enrichment.
type Contact struct {
	ID          int           `json:"id"`
	CompanyID   int           `json:"company_id"`
	Name        string        `json:"name"`
	Title       string        `json:"title,omitempty"`
	Email       string        `json:"email,omitempty"`
	LinkedInURL string        `json:"linkedin_url,omitempty"`
	Status      ContactStatus `json:"status"`

	CampaignStatus string       `json:"campaign_status,omitempty"`
	CampaignType   CampaignType `json:"campaign_type,omitempty"`

	Apollo          map[string]any   `json:"apollo_person_data,omitempty"`
	RussiaTies      map[string]any   `json:"russia_ties_analysis,omitempty"`
	OutreachMessage *OutreachMessage `json:"outreach_message,omitempty"`

	CompanyName string    `json:"company_name,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Enrichable reports whether the contact can be put through enrichment.
func (c Contact) Enrichable() bool {
	return c.Status == ContactSourced || c.Status == ContactFailedEnrichment
}

// InCampaign reports whether the contact is assigned to an active campaign.
func (c Contact) InCampaign() bool {
	return c.CampaignStatus == CampaignInCampaign
}
