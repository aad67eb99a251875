package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one source record keyed by header name. The three source files use
// inconsistent capitalisation for the same logical column, so lookups go
// through candidate key lists rather than single names.
type Row map[string]string

// CleanURN normalises a school identifier. Spreadsheet exports routinely
// carry URNs as floats ("100001.0"); those collapse to the integer string.
// Empty values and the literal "nan" clean to "". CleanURN is idempotent.
func CleanURN(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return ""
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return strconv.FormatInt(int64(f), 10)
	}
	return raw
}

// missing reports whether a raw cell value encodes "not reported".
func missing(value string) bool {
	return value == "" || strings.EqualFold(value, "nan")
}

// lookup returns the first candidate column with a reported value.
func lookup(row Row, keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := row[key]; ok {
			value = strings.TrimSpace(value)
			if !missing(value) {
				return value, true
			}
		}
	}
	return "", false
}

// String returns the first reported value among the candidate columns, or ""
// when every candidate is missing.
func String(row Row, keys ...string) string {
	value, _ := lookup(row, keys...)
	return value
}

// Float coerces the first reported candidate to a float. Unparseable values
// yield nil, never zero: "no data" must stay observable to the caller.
func Float(row Row, keys ...string) *float64 {
	value, ok := lookup(row, keys...)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Int coerces the first reported candidate to an int, tolerating values
// stored as floats-of-ints ("42.0"). The DfE SEND file suppresses small
// counts with "x", "z" and "c" markers; those yield nil.
func Int(row Row, keys ...string) *int {
	value, ok := lookup(row, keys...)
	if !ok {
		return nil
	}
	switch strings.ToLower(value) {
	case "x", "z", "c":
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	i := int(f)
	return &i
}

// Flag interprets the "1"/"0" facility columns in the SEND file.
func Flag(row Row, keys ...string) bool {
	value, _ := lookup(row, keys...)
	return strings.TrimSpace(value) == "1"
}

// CleanPhone strips the float artefact from directory phone numbers and
// applies the London "020 XXXX XXXX" grouping when the raw digits match the
// known 10-digit national forms. Anything else passes through unchanged.
func CleanPhone(raw string) string {
	phone := strings.TrimSpace(raw)
	phone = strings.TrimSuffix(phone, ".0")
	if len(phone) == 10 {
		switch {
		case strings.HasPrefix(phone, "20"):
			return fmt.Sprintf("020 %s %s", phone[2:6], phone[6:])
		case strings.HasPrefix(phone, "2"):
			return fmt.Sprintf("020 %s %s", phone[1:5], phone[5:])
		}
	}
	return phone
}
