//go:build embed

// Package frontend serves the booth SPA. Built with -tags embed, the dist
// output is compiled into the binary so the kiosk runs from a single file.
package frontend

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist/*
var distFiles embed.FS

func Handler() http.Handler {
	sub, err := fs.Sub(distFiles, "dist")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
