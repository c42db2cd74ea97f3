package pages

import (
	"bytes"
	"fmt"
)

// DocumentData fills the host document template.
type DocumentData struct {
	Title string
	// Assets is the URL prefix the stylesheet is served from, with trailing slash
	Assets string
}

// Document renders the host HTML page that contains the mount element.
func Document(data DocumentData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		return nil, fmt.Errorf("render host document: %w", err)
	}
	return buf.Bytes(), nil
}
