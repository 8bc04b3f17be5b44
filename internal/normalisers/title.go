package normalisers

import (
	"path/filepath"
	"strings"
)

var titleSeparators = strings.NewReplacer("_", " ", "-", " ")

// TitleFromURI derives a display title from a file name: the extension is
// dropped and underscores and dashes become spaces.
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimSpace(titleSeparators.Replace(name))
}
