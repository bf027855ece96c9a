// Package web holds the server-rendered screens for the three steps.
package web

import "embed"

// Templates defines "header" and "footer" plus one template per step: "idea", "loading", "result"
//
//go:embed templates/*.tmpl
var Templates embed.FS
