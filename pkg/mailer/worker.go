package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
)

// Worker turns queued EmailJobs into sent mail.
type Worker struct {
	Sender      Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

// Handle processes one delivery body. Malformed or unrenderable jobs and
// permanent send failures are dropped. Other send failures are requeued.
func (w *Worker) Handle(ctx context.Context, body []byte) helpers.Outcome {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		helpers.LogWarn(w.Logger, "bad email job", err, nil)
		return helpers.Drop
	}
	job.Normalize()

	subject, text, html, err := job.Render()
	if err != nil {
		helpers.LogWarn(w.Logger, "render email failed", err, logrus.Fields{"template": job.Template})
		return helpers.Drop
	}

	timeout := w.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		fields := logrus.Fields{"template": job.Template}
		if errors.Is(err, ErrPermanent) {
			helpers.LogError(w.Logger, "send email rejected", err, fields)
			return helpers.Drop
		}
		helpers.LogError(w.Logger, "send email failed", err, fields)
		return helpers.Requeue
	}
	if w.Logger != nil {
		w.Logger.WithField("template", job.Template).Debug("email sent")
	}
	return helpers.Ack
}
