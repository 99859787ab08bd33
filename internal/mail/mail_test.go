package mail

import (
	"bytes"
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer("salon@nailsalon.gr", "Nail Salon", DefaultTemplates())
	require.NoError(t, err)
	return c
}

func encode(t *testing.T, m domain.MailMessage) []byte {
	t.Helper()
	body, err := json.Marshal(m)
	require.NoError(t, err)
	return body
}

func render(t *testing.T, c *Composer, body []byte) string {
	t.Helper()
	msg, err := c.Compose(body)
	require.NoError(t, err)

	buf := bytes.Buffer{}
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestComposeAppointmentConfirmation(t *testing.T) {
	c := newTestComposer(t)

	out := render(t, c, encode(t, domain.MailMessage{
		Type: domain.MailTypeAppointmentConfirmation,
		To:   "sofia@example.com",
		Data: domain.AppointmentMailData{
			CustomerName:  "Sofia",
			EmployeeName:  "Elena",
			Date:          "2025-03-10",
			Time:          "14:00",
			Services:      []string{"Manicure", "Gel"},
			TotalDuration: 90,
			TotalPrice:    45,
		},
	}))

	assert.Contains(t, out, "Nail Salon - Appointment confirmed")
	assert.Contains(t, out, "sofia@example.com")
	assert.Contains(t, out, "Dear Sofia")
	assert.Contains(t, out, "Manicure, Gel")
	assert.Contains(t, out, "45.00 EUR")
}

func TestComposeCreateUser(t *testing.T) {
	c := newTestComposer(t)

	out := render(t, c, encode(t, domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "maria@nailsalon.gr",
		Data: domain.CreateUserMailData{FullName: "Maria", Username: "maria", Password: "s3cret"},
	}))

	assert.Contains(t, out, "Your staff account")
	assert.Contains(t, out, "s3cret")
}

func TestComposeRejectsBadMessages(t *testing.T) {
	c := newTestComposer(t)

	_, err := c.Compose([]byte("not json"))
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = c.Compose(encode(t, domain.MailMessage{Type: "reset_password", To: "a@b.gr"}))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = c.Compose(encode(t, domain.MailMessage{
		Type: domain.MailTypeAppointmentCancelled,
		To:   "not an address",
		Data: domain.AppointmentMailData{CustomerName: "Sofia"},
	}))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestComposerWithCustomTemplates(t *testing.T) {
	templates := fstest.MapFS{
		"appointment_cancelled.html": {Data: []byte(`<p>Bye {{.Data.CustomerName}} from {{.SalonName}}</p>`)},
	}
	c, err := NewComposer("salon@nailsalon.gr", "Studio", templates)
	require.NoError(t, err)

	out := render(t, c, encode(t, domain.MailMessage{
		Type: domain.MailTypeAppointmentCancelled,
		To:   "sofia@example.com",
		Data: domain.AppointmentMailData{CustomerName: "Sofia"},
	}))
	assert.Contains(t, out, "Bye Sofia from Studio")

	_, err = c.Compose(encode(t, domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "maria@nailsalon.gr",
		Data: domain.CreateUserMailData{FullName: "Maria"},
	}))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
