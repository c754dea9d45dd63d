package templates

import (
	"time"

	"github.com/oksasatya/supabase-auth-api/config"
)

type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.AppName = cfg.AppName
		d.LogoURL = cfg.LogoURL
		d.SupportURL = cfg.SupportURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, username, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, username, email, opts...))
}

func NewLoginNotificationData(cfg *config.Config, username, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, LoginNotification, username, email, opts...))
}
