package docusign

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

// ListEnvelopes returns every envelope changed since fromDate, walking
// start_position pagination until a short or empty page.
func (c *Client) ListEnvelopes(ctx context.Context, fromDate string) ([]Envelope, error) {
	var all []Envelope
	start := 0

	for {
		query := url.Values{}
		query.Set("from_date", fromDate)
		query.Set("count", strconv.Itoa(pageSize))
		query.Set("start_position", strconv.Itoa(start))

		var page envelopeListResponse
		if err := c.getJSON(ctx, "envelopes", "/envelopes", query, &page); err != nil {
			return nil, err
		}
		if len(page.Envelopes) == 0 {
			break
		}

		all = append(all, page.Envelopes...)
		start += len(page.Envelopes)

		if len(page.Envelopes) < pageSize {
			break
		}
	}

	c.logger.Info("fetched envelopes", slog.Int("count", len(all)))
	return all, nil
}

// Recipients returns the union of the four recipient role arrays for an
// envelope, each record tagged with the role array it came from.
func (c *Client) Recipients(ctx context.Context, envelopeID string) ([]Recipient, error) {
	var resp recipientsResponse
	path := fmt.Sprintf("/envelopes/%s/recipients", envelopeID)
	if err := c.getJSON(ctx, "recipients", path, nil, &resp); err != nil {
		return nil, err
	}

	var recipients []Recipient
	appendTagged := func(role string, batch []Recipient) {
		for _, r := range batch {
			r.RecipientType = role
			recipients = append(recipients, r)
		}
	}
	appendTagged("signers", resp.Signers)
	appendTagged("carbon_copies", resp.CarbonCopies)
	appendTagged("certified_deliveries", resp.CertifiedDeliveries)
	appendTagged("in_person_signers", resp.InPersonSigners)

	return recipients, nil
}

// AuditEvents returns the envelope's activity log.
func (c *Client) AuditEvents(ctx context.Context, envelopeID string) ([]AuditEvent, error) {
	var resp auditEventsResponse
	path := fmt.Sprintf("/envelopes/%s/audit_events", envelopeID)
	if err := c.getJSON(ctx, "audit_events", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.AuditEvents, nil
}

// Notifications returns reminder and expiration settings for an envelope.
func (c *Client) Notifications(ctx context.Context, envelopeID string) ([]Notification, error) {
	var resp notificationResponse
	path := fmt.Sprintf("/envelopes/%s/notification", envelopeID)
	if err := c.getJSON(ctx, "notifications", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

// Documents lists the documents attached to an envelope.
func (c *Client) Documents(ctx context.Context, envelopeID string) ([]Document, error) {
	var resp documentsResponse
	path := fmt.Sprintf("/envelopes/%s/documents", envelopeID)
	if err := c.getJSON(ctx, "documents", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.EnvelopeDocuments, nil
}

// DocumentContent downloads the raw binary payload of one document.
func (c *Client) DocumentContent(ctx context.Context, envelopeID, documentID string) ([]byte, error) {
	path := fmt.Sprintf("/envelopes/%s/documents/%s", envelopeID, documentID)
	return c.getBinary(ctx, "document_content", path)
}

// Tabs returns the union of every tab-type array in the envelope's tab
// response, each tab tagged with its type.
func (c *Client) Tabs(ctx context.Context, envelopeID string) ([]Tab, error) {
	var resp map[string]json.RawMessage
	path := fmt.Sprintf("/envelopes/%s/tabs", envelopeID)
	if err := c.getJSON(ctx, "tabs", path, nil, &resp); err != nil {
		return nil, err
	}

	var tabs []Tab
	for tabType, raw := range resp {
		var list []map[string]any
		// Non-array values in the tab envelope are not tab lists.
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		for _, fields := range list {
			tabs = append(tabs, Tab{TabType: tabType, Fields: fields})
		}
	}
	return tabs, nil
}

// CustomFields returns the envelope's text and list custom fields as one
// slice.
func (c *Client) CustomFields(ctx context.Context, envelopeID string) ([]CustomField, error) {
	var resp customFieldsResponse
	path := fmt.Sprintf("/envelopes/%s/custom_fields", envelopeID)
	if err := c.getJSON(ctx, "custom_fields", path, nil, &resp); err != nil {
		return nil, err
	}
	return append(resp.TextCustomFields, resp.ListCustomFields...), nil
}

// ListTemplates returns every account template, paginated like the envelope
// list.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var all []Template
	start := 0

	for {
		query := url.Values{}
		query.Set("count", strconv.Itoa(pageSize))
		query.Set("start_position", strconv.Itoa(start))

		var page templateListResponse
		if err := c.getJSON(ctx, "templates", "/templates", query, &page); err != nil {
			return nil, err
		}
		if len(page.EnvelopeTemplates) == 0 {
			break
		}

		all = append(all, page.EnvelopeTemplates...)
		start += len(page.EnvelopeTemplates)

		if len(page.EnvelopeTemplates) < pageSize {
			break
		}
	}

	return all, nil
}
