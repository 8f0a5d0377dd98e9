package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// titleCase upper-cases the first letter of each word.
func titleCase(s string) string {
	return titleCaser.String(s)
}
