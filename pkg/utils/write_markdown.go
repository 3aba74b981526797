package utils

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dyike/CortexSI/pkg/logger"
)

// WriteMarkdown writes content to dir/fileName, creating dir as needed, and
// returns the written path.
func WriteMarkdown(dir, fileName, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}
	logger.Get().Infow("report written", "path", path)
	return path, nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts GitHub-flavored Markdown, tables included, to a
// standalone HTML page.
func RenderHTML(title, content string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(content), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html lang=\"ko\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}

// WriteHTML renders content and writes it next to the Markdown report, with
// the file extension swapped for .html.
func WriteHTML(dir, fileName, title, content string) (string, error) {
	page, err := RenderHTML(title, content)
	if err != nil {
		return "", err
	}
	htmlName := strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ".html"
	return WriteMarkdown(dir, htmlName, page)
}
