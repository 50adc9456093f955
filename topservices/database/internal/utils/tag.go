package utils

import (
	"reflect"
	"strings"
)

// Tag is a parsed `db:"column,option,..."` struct tag. Options other than
// readOnly and autoIncrement are ignored.
type Tag struct {
	Column        string
	ReadOnly      bool
	AutoIncrement bool
}

// Skipped reports whether the field is never written.
func (tag Tag) Skipped() bool {
	return tag.Column == "" || tag.Column == "-" || tag.ReadOnly || tag.AutoIncrement
}

func ParseTag(tagString reflect.StructTag) Tag {
	column, options, _ := strings.Cut(tagString.Get("db"), ",")

	tag := Tag{Column: strings.TrimSpace(column)}
	for option := range strings.SplitSeq(options, ",") {
		switch strings.TrimSpace(option) {
		case "readOnly":
			tag.ReadOnly = true
		case "autoIncrement":
			tag.AutoIncrement = true
		}
	}

	return tag
}
