package email

import (
	"embed"
	"fmt"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplate(name string) (string, error) {
	content, err := templateFS.ReadFile(fmt.Sprintf("templates/%s.html", name))
	if err != nil {
		return "", fmt.Errorf("template %s not found: %w", name, err)
	}
	return string(content), nil
}
