// ABOUTME: Embeds the transcript HTML template using go:embed
// ABOUTME: Provides templateFS for loading it at runtime

package render

import "embed"

//go:embed templates/*.html
var templateFS embed.FS
