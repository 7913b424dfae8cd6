// Package api implements the HTTP client for the Odysseus pipeline backend.
// It is a thin collaborator: endpoint shapes only, no view state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cata32101/odysseus-app/internal/common"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/model"
	"github.com/cata32101/odysseus-app/internal/pager"
	"github.com/cata32101/odysseus-app/internal/session"
)

// AddChunkSize is the largest domain batch sent in one add request; larger
// submissions are split to respect request-size limits.
const AddChunkSize = 100

// Client talks to the Odysseus backend. All methods attach the session's
// bearer token and surface non-2xx responses as errors carrying the server's
// detail message when one is present.
type Client struct {
	httpClient *http.Client
	session    *session.Session
	baseURL    string
}

// NewClient creates an API client for the given base URL and session.
func NewClient(baseURL string, sess *session.Session) *Client {
	return &Client{
		baseURL: baseURL,
		session: sess,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CompanyPage is one server-paginated slice of companies. Count is the
// server's total matching the filter, not the page length.
type CompanyPage struct {
	Data  []model.Company `json:"data"`
	Count int             `json:"count"`
}

// AddResult reports the outcome of an add-companies submission. Duplicate
// domains are skipped server-side, not errors.
type AddResult struct {
	AddedCount     int      `json:"added_count"`
	SkippedDomains []string `json:"skipped_domains"`
}

// MessageResponse is the generic acknowledgement shape for bulk operations.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListCompanies fetches one page of companies with the filter applied
// server-side. The server's filter semantics mirror filter.Spec.MatchCompany.
func (c *Client) ListCompanies(ctx context.Context, page, pageSize int, spec filter.Spec, sortField string, sortDir pager.Direction) (CompanyPage, error) {
	params := spec.Values()
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("sort_by", sortField)
	params.Set("sort_dir", string(sortDir))

	var result CompanyPage
	if err := c.get(ctx, "/companies", params, &result); err != nil {
		return CompanyPage{}, err
	}
	return result, nil
}

// ListAllCompanies fetches the full, unpaginated company set used for
// dashboard statistics and cross-cutting filters.
func (c *Client) ListAllCompanies(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	if err := c.get(ctx, "/companies/all", nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// AddCompanies submits domains in chunks of AddChunkSize, invoking progress
// after each chunk. On a chunk failure it stops and returns the partial
// result so far alongside the error; prior chunks are not rolled back.
func (c *Client) AddCompanies(ctx context.Context, domains []string, groupName string, progress func(done, total int)) (AddResult, error) {
	if len(domains) == 0 {
		return AddResult{}, common.ErrNoDomains
	}

	var total AddResult
	for start := 0; start < len(domains); start += AddChunkSize {
		end := start + AddChunkSize
		if end > len(domains) {
			end = len(domains)
		}

		body := map[string]any{"domains": domains[start:end]}
		if groupName != "" {
			body["group_name"] = groupName
		}

		var chunk AddResult
		if err := c.post(ctx, "/companies/add", body, &chunk); err != nil {
			return total, fmt.Errorf("chunk %d-%d failed: %w", start+1, end, err)
		}

		total.AddedCount += chunk.AddedCount
		total.SkippedDomains = append(total.SkippedDomains, chunk.SkippedDomains...)
		if progress != nil {
			progress(end, len(domains))
		}
	}

	return total, nil
}

// VetCompanies starts the background vetting workflow for the given IDs.
func (c *Client) VetCompanies(ctx context.Context, ids []int) (MessageResponse, error) {
	var result MessageResponse
	err := c.post(ctx, "/companies/vet", map[string]any{"company_ids": ids}, &result)
	return result, err
}

// ApproveCompany approves one vetted company, triggering contact sourcing
// server-side.
func (c *Client) ApproveCompany(ctx context.Context, id int) (model.Company, error) {
	var company model.Company
	err := c.post(ctx, fmt.Sprintf("/companies/%d/approve", id), nil, &company)
	return company, err
}

// RejectCompany rejects one company.
func (c *Client) RejectCompany(ctx context.Context, id int) (model.Company, error) {
	var company model.Company
	err := c.post(ctx, fmt.Sprintf("/companies/%d/reject", id), nil, &company)
	return company, err
}

// ApproveCompanies approves a batch of vetted companies.
func (c *Client) ApproveCompanies(ctx context.Context, ids []int) (MessageResponse, error) {
	var result MessageResponse
	err := c.post(ctx, "/companies/approve-selected", map[string]any{"company_ids": ids}, &result)
	return result, err
}

// RejectCompanies rejects a batch of companies.
func (c *Client) RejectCompanies(ctx context.Context, ids []int) (MessageResponse, error) {
	var result MessageResponse
	err := c.post(ctx, "/companies/reject-selected", map[string]any{"company_ids": ids}, &result)
	return result, err
}

// DeleteCompanies deletes the given companies and their contacts.
func (c *Client) DeleteCompanies(ctx context.Context, ids []int) (MessageResponse, error) {
	var result MessageResponse
	err := c.post(ctx, "/companies/delete-selected", map[string]any{"company_ids": ids}, &result)
	return result, err
}

// ChangeCompanyGroup moves the given companies into a group.
func (c *Client) ChangeCompanyGroup(ctx context.Context, ids []int, groupName string) (MessageResponse, error) {
	body := map[string]any{"company_ids": ids, "group_name": groupName}
	var result MessageResponse
	err := c.post(ctx, "/companies/move-group", body, &result)
	return result, err
}

// RetryFailedCompanies re-queues every failed company for vetting.
func (c *Client) RetryFailedCompanies(ctx context.Context) (MessageResponse, error) {
	var result MessageResponse
	err := c.post(ctx, "/companies/retry-failed", nil, &result)
	return result, err
}

// GetCompanyContacts lists the contacts sourced for one company.
func (c *Client) GetCompanyContacts(ctx context.Context, companyID int) ([]model.Contact, error) {
	var contacts []model.Contact
	err := c.get(ctx, fmt.Sprintf("/companies/%d/contacts", companyID), nil, &contacts)
	return contacts, err
}

// DownloadCompanyPDF returns the company dossier as a raw PDF byte stream.
func (c *Client) DownloadCompanyPDF(ctx context.Context, companyID int) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/companies/%d/pdf", companyID), nil, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PDF: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.responseError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF body: %w", err)
	}
	return data, nil
}

// ListContacts lists enriched contacts across all companies.
func (c *Client) ListContacts(ctx context.Context) ([]model.Contact, error) {
	var contacts []model.Contact
	err := c.get(ctx, "/contacts/", nil, &contacts)
	return contacts, err
}

// ApproveContact approves a sourced contact and triggers enrichment. The
// backend exposes a single operation for both "approve" and "enrich"; keep
// one client method so the two labels can never diverge.
func (c *Client) ApproveContact(ctx context.Context, id int) (model.Contact, error) {
	var contact model.Contact
	err := c.post(ctx, fmt.Sprintf("/contacts/%d/approve", id), nil, &contact)
	return contact, err
}

// AddContactToCampaign assigns an enriched contact to a campaign channel.
func (c *Client) AddContactToCampaign(ctx context.Context, id int, campaignType model.CampaignType) (model.Contact, error) {
	body := map[string]any{"campaign_type": campaignType}
	var contact model.Contact
	err := c.post(ctx, fmt.Sprintf("/contacts/%d/campaign", id), body, &contact)
	return contact, err
}

// UpdateContactMessage replaces a contact's outreach draft.
func (c *Client) UpdateContactMessage(ctx context.Context, id int, subject, body string) (model.Contact, error) {
	payload := map[string]any{"subject_line": subject, "email_body": body}
	var contact model.Contact
	err := c.put(ctx, fmt.Sprintf("/contacts/%d/message", id), payload, &contact)
	return contact, err
}

// ArchiveCampaign snapshots the active campaign of the given type under a
// name and moves its contacts out of the active set.
func (c *Client) ArchiveCampaign(ctx context.Context, campaignType model.CampaignType, name string) (MessageResponse, error) {
	if name == "" {
		return MessageResponse{}, common.ErrNoCampaignName
	}
	body := map[string]any{"campaign_type": campaignType, "campaign_name": name}
	var result MessageResponse
	err := c.post(ctx, "/contacts/campaigns/archive", body, &result)
	return result, err
}

// ListPastCampaigns lists archived campaigns, newest first.
func (c *Client) ListPastCampaigns(ctx context.Context) ([]model.PastCampaign, error) {
	var campaigns []model.PastCampaign
	err := c.get(ctx, "/contacts/campaigns/past", nil, &campaigns)
	return campaigns, err
}

// GetPastCampaignDetails returns the contact snapshots of one archived
// campaign.
func (c *Client) GetPastCampaignDetails(ctx context.Context, id int) ([]model.PastCampaignContact, error) {
	var contacts []model.PastCampaignContact
	err := c.get(ctx, fmt.Sprintf("/contacts/campaigns/past/%d", id), nil, &contacts)
	return contacts, err
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, params, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body any) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", marshalErr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessToken())
	}
	return req, nil
}

// responseError converts a non-2xx response into an error carrying the
// server's detail message when present, else the transport status text.
func (c *Client) responseError(resp *http.Response) error {
	var sentinel error
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		sentinel = common.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		sentinel = common.ErrNotFound
	default:
		sentinel = common.ErrServer
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return common.NewUserError(detail.Detail, sentinel)
	}
	return common.NewUserError(resp.Status, sentinel)
}
