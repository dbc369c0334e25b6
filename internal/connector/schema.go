package connector

// Destination table names.
const (
	TableEnvelopes             = "envelopes"
	TableRecipients            = "recipients"
	TableEnhancedRecipients    = "enhanced_recipients"
	TableAuditEvents           = "audit_events"
	TableEnvelopeNotifications = "envelope_notifications"
	TableDocuments             = "documents"
	TableDocumentContents      = "document_contents"
	TableDocumentTabs          = "document_tabs"
	TableTemplates             = "templates"
	TableCustomFields          = "custom_fields"
)

// TableSchema describes one destination table and its primary key columns.
type TableSchema struct {
	Table      string   `json:"table"`
	PrimaryKey []string `json:"primary_key"`
}

// Schema declares the ten destination tables to the host.
func Schema() []TableSchema {
	return []TableSchema{
		{Table: TableEnvelopes, PrimaryKey: []string{"envelope_id"}},
		{Table: TableRecipients, PrimaryKey: []string{"envelope_id", "recipient_id"}},
		{Table: TableEnhancedRecipients, PrimaryKey: []string{"envelope_id", "recipient_id"}},
		{Table: TableAuditEvents, PrimaryKey: []string{"envelope_id", "event_id"}},
		{Table: TableEnvelopeNotifications, PrimaryKey: []string{"envelope_id", "notification_id"}},
		{Table: TableDocuments, PrimaryKey: []string{"envelope_id", "document_id"}},
		{Table: TableDocumentContents, PrimaryKey: []string{"envelope_id", "document_id"}},
		{Table: TableDocumentTabs, PrimaryKey: []string{"envelope_id", "document_id", "tab_id"}},
		{Table: TableTemplates, PrimaryKey: []string{"template_id"}},
		{Table: TableCustomFields, PrimaryKey: []string{"envelope_id", "field_name"}},
	}
}
