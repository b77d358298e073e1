package model

import "strings"

// Field is a canonical slot in a projected row.
type Field int

const (
	Date Field = iota
	Time
	Method
	URIStem
	URIQuery
	Username
	ClientIP
	Status
	Substatus
	Win32Status
	TimeTaken
)

// FieldCount is the number of canonical slots.
const FieldCount = 11

// SupportedFields lists the recognized W3C field names in canonical slot order.
var SupportedFields = [FieldCount]string{
	"date",
	"time",
	"cs-method",
	"cs-uri-stem",
	"cs-uri-query",
	"cs-username",
	"c-ip",
	"sc-status",
	"sc-substatus",
	"sc-win32-status",
	"time-taken",
}

// String returns the W3C field name of the slot.
func (f Field) String() string {
	if f < 0 || int(f) >= FieldCount {
		return "unknown"
	}
	return SupportedFields[f]
}

// LookupField reports whether name is a supported field. The comparison is
// case-insensitive.
func LookupField(name string) (Field, bool) {
	for i, s := range SupportedFields {
		if strings.EqualFold(s, name) {
			return Field(i), true
		}
	}
	return 0, false
}
