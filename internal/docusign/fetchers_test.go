package docusign

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestListEnvelopes_Pagination(t *testing.T) {
	var fromDates, startPositions []string

	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		fromDates = append(fromDates, q.Get("from_date"))
		startPositions = append(startPositions, q.Get("start_position"))
		if q.Get("count") != "100" {
			t.Errorf("expected count=100, got %q", q.Get("count"))
		}

		// First page is full, second is short.
		var envelopes []map[string]string
		size := pageSize
		if q.Get("start_position") != "0" {
			size = 3
		}
		for i := 0; i < size; i++ {
			envelopes = append(envelopes, map[string]string{
				"envelopeId": fmt.Sprintf("%s-%d", q.Get("start_position"), i),
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"envelopes": envelopes})
	})

	all, err := client.ListEnvelopes(context.Background(), "2024-01-01T00:00:00.000Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(all) != pageSize+3 {
		t.Errorf("expected %d envelopes, got %d", pageSize+3, len(all))
	}
	if len(startPositions) != 2 || startPositions[0] != "0" || startPositions[1] != "100" {
		t.Errorf("expected start positions [0 100], got %v", startPositions)
	}
	for _, fd := range fromDates {
		if fd != "2024-01-01T00:00:00.000Z" {
			t.Errorf("every page must carry the watermark, got %q", fd)
		}
	}
}

func TestListEnvelopes_EmptyAccount(t *testing.T) {
	var requests int
	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"envelopes": []}`))
	})

	all, err := client.ListEnvelopes(context.Background(), "2020-01-01T00:00:00.000Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected no envelopes, got %d", len(all))
	}
	if requests != 1 {
		t.Errorf("expected a single request for an empty account, got %d", requests)
	}
}

func TestRecipients_UnionsRoleArrays(t *testing.T) {
	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2.1/accounts/acct-1/envelopes/E1/recipients" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"signers": [{"recipientId": "1", "name": "Ada", "routingOrder": "1"}],
			"carbon_copies": [{"recipientId": "2", "name": "Grace"}],
			"certified_deliveries": [{"recipientId": "3"}],
			"in_person_signers": [{"recipientId": "4"}]
		}`))
	})

	recipients, err := client.Recipients(context.Background(), "E1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipients) != 4 {
		t.Fatalf("expected 4 recipients, got %d", len(recipients))
	}

	wantTypes := []string{"signers", "carbon_copies", "certified_deliveries", "in_person_signers"}
	for i, want := range wantTypes {
		if recipients[i].RecipientType != want {
			t.Errorf("recipient %d: expected type %q, got %q", i, want, recipients[i].RecipientType)
		}
	}
	if recipients[0].Name != "Ada" || recipients[0].RoutingOrder != "1" {
		t.Errorf("unexpected signer record: %+v", recipients[0])
	}
}

func TestAuditEvents_DynamicFields(t *testing.T) {
	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"auditEvents": [
			{"eventFields": [
				{"name": "logTime", "value": "2024-05-05T10:00:00Z"},
				{"name": "UserName", "value": "Ada"}
			]}
		]}`))
	})

	events, err := client.AuditEvents(context.Background(), "E1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || len(events[0].EventFields) != 2 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].EventFields[0].Name != "logTime" {
		t.Errorf("expected field name preserved, got %q", events[0].EventFields[0].Name)
	}
}

func TestTabs_UnionsTabTypes(t *testing.T) {
	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2.1/accounts/acct-1/envelopes/E1/tabs" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"signHereTabs": [
				{"tabId": "T1", "documentId": "D1", "xPosition": "100"},
				{"tabId": "T2", "documentId": "D1"}
			],
			"dateSignedTabs": [{"tabId": "T3", "documentId": "D2"}],
			"prefillTabs": {"textTabs": []}
		}`))
	})

	tabs, err := client.Tabs(context.Background(), "E1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// prefillTabs is not an array and must be skipped.
	if len(tabs) != 3 {
		t.Fatalf("expected 3 tabs, got %d", len(tabs))
	}

	byType := map[string]int{}
	for _, tab := range tabs {
		byType[tab.TabType]++
	}
	if byType["signHereTabs"] != 2 || byType["dateSignedTabs"] != 1 {
		t.Errorf("unexpected tab type counts: %v", byType)
	}
}

func TestCustomFields_ConcatenatesVariants(t *testing.T) {
	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"textCustomFields": [{"name": "region", "value": "emea", "fieldType": "text"}],
			"listCustomFields": [{"name": "tier", "value": "gold", "fieldType": "list"}]
		}`))
	})

	fields, err := client.CustomFields(context.Background(), "E1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Name != "region" || fields[1].Name != "tier" {
		t.Errorf("expected text fields before list fields, got %+v", fields)
	}
}

func TestListTemplates_Pagination(t *testing.T) {
	var startPositions []string
	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2.1/accounts/acct-1/templates" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		startPositions = append(startPositions, r.URL.Query().Get("start_position"))

		var templates []map[string]string
		size := pageSize
		if r.URL.Query().Get("start_position") != "0" {
			size = 1
		}
		for i := 0; i < size; i++ {
			templates = append(templates, map[string]string{"templateId": fmt.Sprintf("T%d", i)})
		}
		json.NewEncoder(w).Encode(map[string]any{"envelopeTemplates": templates})
	})

	all, err := client.ListTemplates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != pageSize+1 {
		t.Errorf("expected %d templates, got %d", pageSize+1, len(all))
	}
	if len(startPositions) != 2 || startPositions[1] != "100" {
		t.Errorf("expected second page at position 100, got %v", startPositions)
	}
}

func TestNotifications(t *testing.T) {
	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2.1/accounts/acct-1/envelopes/E1/notification" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"notifications": [
			{"notificationId": "N1", "notificationType": "reminder",
			 "scheduledDate": "2024-06-01T00:00:00Z", "sentDate": ""}
		]}`))
	})

	notifications, err := client.Notifications(context.Background(), "E1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifications) != 1 || notifications[0].NotificationID != "N1" {
		t.Errorf("unexpected notifications: %+v", notifications)
	}
}

func TestDocuments(t *testing.T) {
	_, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"envelopeDocuments": [
			{"documentId": "D1", "name": "contract.pdf", "type": "content", "pages": "4"}
		]}`))
	})

	documents, err := client.Documents(context.Background(), "E1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(documents) != 1 || documents[0].DocumentID != "D1" || documents[0].Pages != "4" {
		t.Errorf("unexpected documents: %+v", documents)
	}
}
