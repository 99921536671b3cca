package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestEmailMessage_Render(t *testing.T) {
	conf := NewTestConfig()
	conf.FrontendBaseURL = "https://attendance.test.cd"
	ParseEmailTemplates(conf, nopLogger{})

	data := struct{ Name, PRN, SubmittedAt, DistanceMeters string }{
		Name: "Amani <b>", PRN: "24020542001", SubmittedAt: "Sat, 14 Mar 2026 07:55:00 UTC", DistanceMeters: "15.3",
	}

	t.Run("templated", func(t *testing.T) {
		msg := EmailMessage{
			To:           []mail.Address{{Address: "amani@test.cd"}},
			TemplateName: "checkin_receipt",
			TemplateData: data,
		}
		require.NoError(t, msg.Render())
		assert.Contains(t, msg.TextContent, "Hi Amani <b>,")
		assert.Contains(t, msg.TextContent, "https://attendance.test.cd")
		assert.Contains(t, msg.HTMLContent, "Amani &lt;b&gt;")
		assert.Contains(t, msg.HTMLContent, `href="https://attendance.test.cd"`)
		assert.True(t, msg.HasContent())
		assert.True(t, msg.HasRecipients())
	})

	t.Run("plain body wins over text template", func(t *testing.T) {
		msg := EmailMessage{BodyStr: "hello", TemplateName: "checkin_receipt", TemplateData: data}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hello", msg.TextContent)
		assert.NotEmpty(t, msg.HTMLContent)
		assert.False(t, msg.HasRecipients())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "nope"}
		assert.Error(t, msg.Render())
	})

	t.Run("missing data is an error in test mode", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "checkin_receipt", TemplateData: map[string]string{}}
		assert.Error(t, msg.Render())
	})
}
