package tablespec

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	displayLimit = 100
	wrapWidth    = 75
	wrapBreak    = "<br>"
	limitEnd     = "..."
)

// titleCase upper-cases the first letter of every word. Casers keep state,
// so a fresh one is made per call.
func titleCase(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

// toSnakeCase converts a Go type name to snake case. Runs of capitals are
// kept together: HTTPStatus -> http_status.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var result strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

// headline turns EmployeeProject or employee_project into "Employee Project".
func headline(s string) string {
	words := strings.FieldsFunc(toSnakeCase(s), func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	return titleCase(strings.Join(words, " "))
}

// humanize builds the default column label: separators become spaces and
// every word starts upper case.
func humanize(name string) string {
	return titleCase(strings.NewReplacer("_", " ", ".", " ").Replace(name))
}

// limitText truncates s to limit runes, trims trailing space and appends "...".
func limitText(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:limit]), unicode.IsSpace) + limitEnd
}

// wordWrap breaks s into lines of at most width runes on word boundaries,
// joined by brk. Words longer than width are left whole.
func wordWrap(s string, width int, brk string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	var out strings.Builder
	lineLen := 0
	for i, w := range words {
		wl := utf8.RuneCountInString(w)
		if i > 0 {
			if lineLen+1+wl > width {
				out.WriteString(brk)
				lineLen = 0
			} else {
				out.WriteByte(' ')
				lineLen++
			}
		}
		out.WriteString(w)
		lineLen += wl
	}
	return out.String()
}

// displayString is the string form used for relation cells and exports.
func displayString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(time.RFC3339)
	case *time.Time:
		if val == nil || val.IsZero() {
			return ""
		}
		return val.Format(time.RFC3339)
	case HTML:
		return val.HTML
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
