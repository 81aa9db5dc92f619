// templates/funcs.go
package templates

import (
	"html/template"
	"net/url"
	"strings"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// {{ "a b" | urlquery }} → "a+b"
		"urlquery": url.QueryEscape,
		"lower":    strings.ToLower,
		"upper":    strings.ToUpper,
		"join":     strings.Join,
		// {{ errorID "name" }} → "nameError"
		"errorID": func(field string) string { return field + "Error" },
	}
}
