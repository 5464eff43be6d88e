package contact

import (
	"time"

	"github.com/printology/storefront/pkg/mailer"
)

// Placeholders for optional form fields.
const (
	NoPhone   = "Tidak diisi"
	NoService = "Tidak dipilih"
)

// dateLayout renders dd/MM/yyyy HH:mm.
const dateLayout = "02/01/2006 15:04"

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// operatorEnvelope addresses the shop operator. reply_to points back at
// the sender so the operator can answer directly.
func (d *Dispatcher) operatorEnvelope(msg Message, now time.Time) *mailer.Envelope {
	return &mailer.Envelope{
		ServiceID:   d.cfg.ServiceID,
		TemplateID:  d.cfg.OperatorTemplateID,
		UserID:      d.cfg.PublicKey,
		AccessToken: d.cfg.AccessToken,
		TemplateParams: map[string]string{
			"from_name":  msg.Name,
			"from_email": msg.Email,
			"to_email":   d.cfg.OperatorEmail,
			"phone":      orDefault(msg.Phone, NoPhone),
			"service":    orDefault(msg.Service, NoService),
			"message":    msg.Body,
			"date":       now.In(d.cfg.Location).Format(dateLayout),
			"reply_to":   msg.Email,
		},
	}
}

// senderEnvelope is the confirmation copy for the person who wrote in.
func (d *Dispatcher) senderEnvelope(msg Message, now time.Time) *mailer.Envelope {
	return &mailer.Envelope{
		ServiceID:   d.cfg.ServiceID,
		TemplateID:  d.cfg.SenderTemplateID,
		UserID:      d.cfg.PublicKey,
		AccessToken: d.cfg.AccessToken,
		TemplateParams: map[string]string{
			"to_name":        msg.Name,
			"to_email":       msg.Email,
			"from_name":      d.cfg.TeamName,
			"service":        orDefault(msg.Service, NoService),
			"phone":          orDefault(msg.Phone, NoPhone),
			"message":        msg.Body,
			"order_date":     now.In(d.cfg.Location).Format(dateLayout),
			"business_email": d.cfg.BusinessEmail,
			"business_phone": d.cfg.BusinessPhone,
		},
	}
}
