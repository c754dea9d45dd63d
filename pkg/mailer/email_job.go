package mailer

import (
	"fmt"
	"strings"

	tpl "github.com/oksasatya/supabase-auth-api/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the queue for sending email.
// Either Template (+Data) or Subject with Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome" or "login_notification"
	Data     map[string]any `json:"data,omitempty"`
}

// NewTemplateJob builds a templated job addressed to data's recipient.
func NewTemplateJob(to, template string, data map[string]any) EmailJob {
	return EmailJob{To: to, Template: template, Data: data}
}

// Normalize fills recipient fields templates rely on.
func (j *EmailJob) Normalize() {
	j.Template = strings.ToLower(strings.TrimSpace(j.Template))
	if j.Template == "" {
		return
	}
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if v, ok := j.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["Email"] = j.To
	}
	if v, ok := j.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["RecipientEmail"] = j.To
	}
	if v, ok := j.Data["Type"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["Type"] = j.Template
	}
}

// Render resolves subject, text and html for the job.
func (j *EmailJob) Render() (subject, text, html string, err error) {
	if j.Template == "" {
		if j.Subject == "" || (j.Text == "" && j.HTML == "") {
			return "", "", "", fmt.Errorf("job for %q has neither template nor content", j.To)
		}
		return j.Subject, j.Text, j.HTML, nil
	}
	if !tpl.Known(j.Template) {
		return "", "", "", fmt.Errorf("unknown template %q", j.Template)
	}
	return tpl.Render(j.Template, j.Data)
}
