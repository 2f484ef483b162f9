// Package ssobridge provides embedded assets for the login service.
package ssobridge

import "embed"

// TemplateFS holds the HTML templates served by the login form.
//
//go:embed templates/*.tmpl
var TemplateFS embed.FS
