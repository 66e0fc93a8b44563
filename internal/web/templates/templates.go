// Package templates embeds the storefront's HTML views.
package templates

import "embed"

//go:embed *.html pages/*.html partials/*.html
var FS embed.FS
