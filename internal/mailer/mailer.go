package mailer

import "embed"

const (
	FromName             = "Polaris"
	maxRetries           = 3
	UserWelcomeTemplate  = "user_welcome.tmpl"
	RoleAssignedTemplate = "role_assigned.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
