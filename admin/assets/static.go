package assets

import (
	"embed"
	"net/http"
)

//go:embed *.css
var Assets embed.FS

// Handler serves the embedded stylesheets under prefix.
func Handler(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.FS(Assets)))
}
