package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer turns messages into subject and HTML body
type Renderer struct {
	templates *template.Template
	now       func() time.Time
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	for name := range subjects {
		if tmpl.Lookup(string(name)+".html") == nil {
			return nil, fmt.Errorf("missing email template %s", name)
		}
	}
	return &Renderer{templates: tmpl, now: time.Now}, nil
}

// Render returns the message's subject and body
func (r *Renderer) Render(msg Message) (string, string, error) {
	if err := msg.Validate(); err != nil {
		return "", "", err
	}

	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["year"] = strconv.Itoa(r.now().Year())

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, string(msg.Template)+".html", data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", msg.Template, err)
	}
	return subjects[msg.Template], buf.String(), nil
}
