package modules

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
)

// describe extracts a package description: the root element's description
// attribute, else the first <description> element. Malformed packages get
// the default text.
func (r *Registry) describe(file string) string {
	content, err := r.packages.ReadFile(file)
	if err != nil {
		return defaultCustomDescription
	}
	if d := descriptionOf(content); d != "" {
		return d
	}
	return defaultCustomDescription
}

func descriptionOf(content []byte) string {
	doc, err := xmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	if root := xmlquery.FindOne(doc, "/*"); root != nil {
		if d := strings.TrimSpace(root.SelectAttr("description")); d != "" {
			return d
		}
	}
	if node := xmlquery.FindOne(doc, "//description"); node != nil {
		return strings.Join(strings.Fields(node.InnerText()), " ")
	}
	return ""
}
