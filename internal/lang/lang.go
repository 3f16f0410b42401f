package lang

import "strings"

// Language identifies the source language a declaration was emitted for.
type Language string

const (
	Swift      Language = "swift"
	ObjectiveC Language = "occ"
	Data       Language = "data"
	Metal      Language = "metal"
)

var aliases = map[string]Language{
	"swift":       Swift,
	"occ":         ObjectiveC,
	"objc":        ObjectiveC,
	"objective-c": ObjectiveC,
	"c":           ObjectiveC,
	"data":        Data,
	"metal":       Metal,
}

var names = map[Language]string{
	Swift:      "Swift",
	ObjectiveC: "Objective-C",
	Data:       "Data",
	Metal:      "Metal",
}

// Parse maps a symbol graph interface language (or a user supplied alias)
// to a Language. Unknown tags are kept verbatim, lower-cased, so they still
// get their own bucket.
func Parse(tag string) Language {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if l, ok := aliases[tag]; ok {
		return l
	}
	return Language(tag)
}

// Name returns the display name of the language.
func (l Language) Name() string {
	if n, ok := names[l]; ok {
		return n
	}
	return string(l)
}

func (l Language) String() string { return string(l) }
