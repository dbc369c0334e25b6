package docusign

// Envelope is the top-level contract container. DocuSign returns every
// field as a string; timestamps are ISO 8601 with a trailing Z.
type Envelope struct {
	EnvelopeID            string `json:"envelopeId"`
	Status                string `json:"status"`
	EmailSubject          string `json:"emailSubject"`
	SentDateTime          string `json:"sentDateTime"`
	CompletedDateTime     string `json:"completedDateTime"`
	CreatedDateTime       string `json:"createdDateTime"`
	StatusChangedDateTime string `json:"statusChangedDateTime"`
}

type envelopeListResponse struct {
	Envelopes []Envelope `json:"envelopes"`
}

// Recipient is a party attached to an envelope in one of several roles.
// RecipientType records which role array the record came from.
type Recipient struct {
	RecipientID    string `json:"recipientId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Status         string `json:"status"`
	RoutingOrder   string `json:"routingOrder"`
	DeclinedReason string `json:"declinedReason"`
	SentDateTime   string `json:"sentDateTime"`
	SignedDateTime string `json:"signedDateTime"`

	RecipientType string `json:"-"`
}

type recipientsResponse struct {
	Signers             []Recipient `json:"signers"`
	CarbonCopies        []Recipient `json:"carbon_copies"`
	CertifiedDeliveries []Recipient `json:"certified_deliveries"`
	InPersonSigners     []Recipient `json:"in_person_signers"`
}

// EventField is one name/value pair in an audit event's dynamic field bag.
type EventField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AuditEvent is a timestamped entry in the envelope's activity log.
type AuditEvent struct {
	EventFields []EventField `json:"eventFields"`
}

type auditEventsResponse struct {
	AuditEvents []AuditEvent `json:"auditEvents"`
}

// Notification is a reminder or expiration attached to an envelope.
type Notification struct {
	NotificationID   string `json:"notificationId"`
	NotificationType string `json:"notificationType"`
	ScheduledDate    string `json:"scheduledDate"`
	SentDate         string `json:"sentDate"`
}

type notificationResponse struct {
	Notifications []Notification `json:"notifications"`
}

// Document describes one document inside an envelope. Binary content is
// fetched separately.
type Document struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Pages      string `json:"pages"`
}

type documentsResponse struct {
	EnvelopeDocuments []Document `json:"envelopeDocuments"`
}

// Tab is a single form field placed on a document. The tab response is a
// mapping from tab-type name to an array of tab objects whose shape varies
// by type, so fields are kept dynamic. TabType records which array the tab
// came from.
type Tab struct {
	TabType string
	Fields  map[string]any
}

// CustomField is a user-defined metadata key on an envelope.
type CustomField struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	FieldType string `json:"fieldType"`
}

type customFieldsResponse struct {
	TextCustomFields []CustomField `json:"textCustomFields"`
	ListCustomFields []CustomField `json:"listCustomFields"`
}

// Template is a reusable envelope blueprint.
type Template struct {
	TemplateID   string `json:"templateId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Created      string `json:"created"`
	LastModified string `json:"lastModified"`
	Shared       string `json:"shared"`
}

type templateListResponse struct {
	EnvelopeTemplates []Template `json:"envelopeTemplates"`
}
