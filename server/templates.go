package main

import (
	"html/template"
	"io/fs"
	"path/filepath"
	"time"

	"siboltech/hydroponics/server/internal/models"
	"siboltech/hydroponics/server/ui"
)

type relayView struct {
	N  int
	On bool
}

type templateData struct {
	CurrentYear     int
	Flash           string
	Form            any
	IsAuthenticated bool
	CSRFToken       string
	Latest          map[string]models.Reading
	Relays          []relayView
	Events          []models.ActuatorEvent
}

func humanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("02 Jan 2006 at 15:04")
}

var functions = template.FuncMap{
	"humanDate": humanDate,
}

func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}

	pages, err := fs.Glob(ui.Files, "html/pages/*.html")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)
		patterns := []string{
			"html/base.html",
			page,
		}
		ts, err := template.New(name).Funcs(functions).ParseFS(ui.Files, patterns...)
		if err != nil {
			return nil, err
		}
		cache[name] = ts
	}

	return cache, nil
}
