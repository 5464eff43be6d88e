package contact

import (
	"strings"

	"github.com/printology/storefront/pkg/api"
)

// Message is one contact-form submission.
type Message struct {
	Name    string
	Email   string
	Phone   string
	Service string
	Body    string
}

// MessageFromRequest converts the wire form, trimming surrounding blanks.
func MessageFromRequest(req *api.ContactRequest) Message {
	return Message{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Service: strings.TrimSpace(req.Service),
		Body:    strings.TrimSpace(req.Message),
	}
}

// Validate applies the contact form rules.
func (m Message) Validate(cfg api.ValidationConfig) *api.APIError {
	return api.ValidateContactRequest(&api.ContactRequest{
		Name:    m.Name,
		Email:   m.Email,
		Phone:   m.Phone,
		Service: m.Service,
		Message: m.Body,
	}, cfg)
}
