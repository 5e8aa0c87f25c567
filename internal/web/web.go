// Package web holds the server-rendered page templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"homease-backend/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"money":     Money,
	"roomLabel": models.RoomLabel,
	"join":      strings.Join,
	"lower":     strings.ToLower,
	"add":       func(a, b int) int { return a + b },
}

// Money formats cents as US dollars.
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// Templates parses every embedded page.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
}
