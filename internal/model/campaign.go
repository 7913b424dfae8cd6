package model

import "time"

// PastCampaign is an archived outreach campaign.
type PastCampaign struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	CampaignType  CampaignType `json:"campaign_type"`
	ArchivedAt    time.Time    `json:"archived_at"`
	ContactsCount int          `json:"contacts_count"`
}

// PastCampaignContact is an immutable snapshot of a contact captured when its
// campaign was archived. ContactData is a historical copy, not a live record.
type PastCampaignContact struct {
	ID             int            `json:"id"`
	PastCampaignID int            `json:"past_campaign_id"`
	ContactData    map[string]any `json:"contact_data"`
}
