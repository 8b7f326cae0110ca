// Package templates embeds the HTML pages and mail bodies rendered by the service.
package templates

import (
	"embed"
	"html/template"
)

//go:embed html/*.html
var files embed.FS

const (
	ActivateSuccess   = "activate_success.html"
	ActivateFailure   = "activate_failure.html"
	EmailVerification = "email_verification.html"
)

// Parse returns every embedded template in a single set.
func Parse() *template.Template {
	return template.Must(template.New("").ParseFS(files, "html/*.html"))
}
