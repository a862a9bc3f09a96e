package convert

import (
	"strings"
)

const defaultBaseName = "output"

// PDFFilename derives the download name from the uploaded file's name: base
// name only, last extension swapped for ".pdf", header-unsafe characters
// replaced with '_'.
func PDFFilename(upload string) string {
	name := upload
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 {
		name = name[:i]
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '_', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	if strings.Trim(name, " ._") == "" {
		name = defaultBaseName
	}
	return name + ".pdf"
}
