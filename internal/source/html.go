package source

import (
	"fmt"
	"os"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// loadHTML converts an HTML document to Markdown and then to plain text, so
// lists, headings and tables keep their line structure.
func loadHTML(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(string(content))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return markdownText([]byte(markdown)), nil
}
