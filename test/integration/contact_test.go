package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/printology/storefront/pkg/api"
)

var contactForm = map[string]any{
	"name":    "Budi Santoso",
	"email":   "budi@example.com",
	"phone":   "+62 812-0000-0000",
	"service": "Banner",
	"message": "Butuh banner 2x1m untuk acara kampus.",
}

func TestContactDeliversBothCopies(t *testing.T) {
	testEnv.Mock.Reset()

	resp := postJSON(t, testEnv.BaseURL()+"/v1/contact", contactForm)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var reply api.ContactReply
	decodeJSON(t, resp, &reply)

	if reply.Message != "Email berhasil dikirim!" {
		t.Errorf("message = %q", reply.Message)
	}

	mails := testEnv.Mock.Mails()
	if len(mails) != 2 {
		t.Fatalf("relay received %d mails, want 2", len(mails))
	}
	if mails[0].TemplateID != adminTemplate || mails[0].TemplateParams["to_email"] != operatorEmail {
		t.Errorf("first mail = %+v, want operator copy", mails[0])
	}
	if mails[0].TemplateParams["reply_to"] != "budi@example.com" {
		t.Errorf("operator copy reply_to = %q", mails[0].TemplateParams["reply_to"])
	}
	if mails[1].TemplateID != senderTemplate || mails[1].TemplateParams["to_email"] != "budi@example.com" {
		t.Errorf("second mail = %+v, want sender copy", mails[1])
	}

	sub := getAsOperator(t, testEnv.BaseURL()+"/v1/admin/submissions/"+reply.ID)
	if sub.StatusCode != http.StatusOK {
		t.Fatalf("submission lookup: %d", sub.StatusCode)
	}
	var got api.Submission
	decodeJSON(t, sub, &got)
	if !got.Delivered() {
		t.Errorf("submission = %+v, want both copies sent", got)
	}
}

func TestContactSenderCopyFailure(t *testing.T) {
	testEnv.Mock.Reset()

	resp := postJSON(t, testEnv.Degraded.URL+"/v1/contact", contactForm)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var reply api.ContactReply
	decodeJSON(t, resp, &reply)

	if reply.Message != "Pesan diterima! Admin akan menghubungi Anda." {
		t.Errorf("message = %q", reply.Message)
	}
	if n := len(testEnv.Mock.Mails()); n != 1 {
		t.Errorf("relay accepted %d mails, want only the operator copy", n)
	}

	list := getAsOperator(t, testEnv.Degraded.URL+"/v1/admin/submissions?undelivered=true")
	if list.StatusCode != http.StatusOK {
		t.Fatalf("submission list: %d", list.StatusCode)
	}
	var subs api.SubmissionList
	decodeJSON(t, list, &subs)

	found := false
	for _, s := range subs.Data {
		if s.ID == reply.ID {
			found = true
			if s.OperatorStatus != api.DeliveryStatusSent || s.SenderStatus != api.DeliveryStatusFailed {
				t.Errorf("statuses = %s/%s, want sent/failed", s.OperatorStatus, s.SenderStatus)
			}
		}
	}
	if !found {
		t.Errorf("submission %s not listed as undelivered", reply.ID)
	}
}

func TestContactAdminRequiresOperator(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/v1/admin/submissions")
	readBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous admin access: %d, want 401", resp.StatusCode)
	}
}

func TestContactValidation(t *testing.T) {
	tests := []struct {
		field string
		value string
	}{
		{"name", ""},
		{"email", ""},
		{"email", "not-an-address"},
		{"message", ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%q", tt.field, tt.value), func(t *testing.T) {
			form := map[string]any{}
			for k, v := range contactForm {
				form[k] = v
			}
			form[tt.field] = tt.value

			resp := postJSON(t, testEnv.BaseURL()+"/v1/contact", form)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var errResp api.ErrorResponse
			decodeJSON(t, resp, &errResp)
			if errResp.Error == nil || errResp.Error.Param != tt.field {
				t.Errorf("error = %+v, want param %q", errResp.Error, tt.field)
			}
		})
	}
}
