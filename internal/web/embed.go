// ABOUTME: Embeds HTML templates and docs into the binary using go:embed
// ABOUTME: Provides templateFS and docsFS for loading at runtime

package web

import "embed"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed docs/*.md
var docsFS embed.FS
