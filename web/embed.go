// Package web embeds the page templates served by the HTTP shell.
package web

import "embed"

//go:embed templates/*.html
var TemplateFiles embed.FS
