package connector

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ArpitKhatri1/docusign-connector/internal/docusign"
)

// Normalizers map raw API objects to flat row shapes. Every normalizer
// guards its primary key components: records with a missing or empty
// component are skipped with a warning and produce no row.

// normalizeEnvelope maps an envelope to its row, deriving the cycle time
// and mirroring the status into conversion_status.
func normalizeEnvelope(env docusign.Envelope, log Logger) (Row, bool) {
	if env.EnvelopeID == "" {
		log.Warning("skipping envelope record with missing envelopeId")
		return nil, false
	}

	return Row{
		"envelope_id":               env.EnvelopeID,
		"status":                    env.Status,
		"sent_timestamp":            env.SentDateTime,
		"completed_timestamp":       env.CompletedDateTime,
		"created_timestamp":         env.CreatedDateTime,
		"last_modified_timestamp":   env.StatusChangedDateTime,
		"subject":                   env.EmailSubject,
		"contract_cycle_time_hours": cycleTimeHours(env, log),
		"conversion_status":         env.Status,
	}, true
}

// cycleTimeHours derives the hours between sent and completed for completed
// envelopes. Unparseable timestamps leave the field empty with a warning.
func cycleTimeHours(env docusign.Envelope, log Logger) string {
	if env.Status != "completed" || env.SentDateTime == "" || env.CompletedDateTime == "" {
		return ""
	}

	sent, err := time.Parse(time.RFC3339, env.SentDateTime)
	if err != nil {
		log.Warning("could not calculate cycle time",
			"envelope_id", env.EnvelopeID, "error", err.Error())
		return ""
	}
	completed, err := time.Parse(time.RFC3339, env.CompletedDateTime)
	if err != nil {
		log.Warning("could not calculate cycle time",
			"envelope_id", env.EnvelopeID, "error", err.Error())
		return ""
	}

	return formatHours(completed.Sub(sent).Hours())
}

// formatHours renders fractional hours, keeping a decimal point for whole
// values so the column is uniformly fractional ("36.0", not "36").
func formatHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// normalizeRecipient maps a recipient to the recipients table row.
func normalizeRecipient(envelopeID string, r docusign.Recipient, log Logger) (Row, bool) {
	if r.RecipientID == "" {
		log.Warning("skipping recipient record with missing recipientId",
			"envelope_id", envelopeID)
		return nil, false
	}

	routingOrder := r.RoutingOrder
	if routingOrder == "" {
		routingOrder = "0"
	}

	return Row{
		"envelope_id":   envelopeID,
		"recipient_id":  r.RecipientID,
		"name":          r.Name,
		"email":         r.Email,
		"status":        r.Status,
		"type":          r.RecipientType,
		"routing_order": routingOrder,
	}, true
}

// normalizeEnhancedRecipient extends the recipient row with decline and
// signing history.
func normalizeEnhancedRecipient(envelopeID string, r docusign.Recipient, log Logger) (Row, bool) {
	row, ok := normalizeRecipient(envelopeID, r, log)
	if !ok {
		return nil, false
	}

	row["declined_reason"] = r.DeclinedReason
	row["sent_timestamp"] = r.SentDateTime
	row["signed_timestamp"] = r.SignedDateTime
	return row, true
}

// normalizeAuditEvent flattens the event's name/value pairs into lowercased
// columns and synthesizes event_id from the envelope id and log time.
func normalizeAuditEvent(envelopeID string, ev docusign.AuditEvent, log Logger) (Row, bool) {
	row := Row{}
	for _, field := range ev.EventFields {
		row[strings.ToLower(field.Name)] = field.Value
	}

	logtime := row["logtime"]
	if logtime == "" {
		log.Warning("skipping audit event with missing logtime",
			"envelope_id", envelopeID)
		return nil, false
	}

	row["envelope_id"] = envelopeID
	row["event_id"] = envelopeID + "_" + logtime
	return row, true
}

// normalizeNotification maps a notification to its row.
func normalizeNotification(envelopeID string, n docusign.Notification, log Logger) (Row, bool) {
	if n.NotificationID == "" {
		log.Warning("skipping notification record with missing notificationId",
			"envelope_id", envelopeID)
		return nil, false
	}

	return Row{
		"envelope_id":       envelopeID,
		"notification_id":   n.NotificationID,
		"notification_type": n.NotificationType,
		"scheduled_date":    n.ScheduledDate,
		"sent_date":         n.SentDate,
	}, true
}

// normalizeDocument maps a document listing entry to its row.
func normalizeDocument(envelopeID string, d docusign.Document, log Logger) (Row, bool) {
	if d.DocumentID == "" {
		log.Warning("skipping document record with missing documentId",
			"envelope_id", envelopeID)
		return nil, false
	}

	pages := d.Pages
	if pages == "" {
		pages = "0"
	}

	return Row{
		"envelope_id": envelopeID,
		"document_id": d.DocumentID,
		"name":        d.Name,
		"type":        d.Type,
		"pages":       pages,
	}, true
}

// normalizeDocumentContent wraps the raw binary payload in standard base64.
func normalizeDocumentContent(envelopeID, documentID string, content []byte) Row {
	return Row{
		"envelope_id":    envelopeID,
		"document_id":    documentID,
		"content_base64": base64.StdEncoding.EncodeToString(content),
	}
}

// normalizeTab flattens a tab's dynamic fields into lowercased columns.
// The tabId and documentId fields become the tab_id and document_id key
// columns; nested values are dropped.
func normalizeTab(envelopeID string, tab docusign.Tab, log Logger) (Row, bool) {
	row := Row{}
	for name, value := range tab.Fields {
		switch value.(type) {
		case map[string]any, []any, nil:
			continue
		}
		row[strings.ToLower(name)] = fmt.Sprintf("%v", value)
	}

	tabID := row["tabid"]
	documentID := row["documentid"]
	if tabID == "" || documentID == "" {
		log.Warning("skipping tab record with missing tabId or documentId",
			"envelope_id", envelopeID)
		return nil, false
	}
	delete(row, "tabid")
	delete(row, "documentid")

	row["envelope_id"] = envelopeID
	row["document_id"] = documentID
	row["tab_id"] = tabID
	row["tab_type"] = tab.TabType
	return row, true
}

// normalizeCustomField maps a custom field to its row.
func normalizeCustomField(envelopeID string, f docusign.CustomField, log Logger) (Row, bool) {
	if f.Name == "" {
		log.Warning("skipping custom field record with missing name",
			"envelope_id", envelopeID)
		return nil, false
	}

	return Row{
		"envelope_id": envelopeID,
		"field_name":  f.Name,
		"value":       f.Value,
		"type":        f.FieldType,
	}, true
}

// normalizeTemplate maps a template to its row; shared becomes a lowercased
// boolean string.
func normalizeTemplate(t docusign.Template, log Logger) (Row, bool) {
	if t.TemplateID == "" {
		log.Warning("skipping template record with missing templateId")
		return nil, false
	}

	shared := strings.ToLower(t.Shared)
	if shared == "" {
		shared = "false"
	}

	return Row{
		"template_id":             t.TemplateID,
		"name":                    t.Name,
		"description":             t.Description,
		"created_timestamp":       t.Created,
		"last_modified_timestamp": t.LastModified,
		"shared":                  shared,
	}, true
}
