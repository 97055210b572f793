package receptionist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ContactExtractor pulls contact details out of free text.
type ContactExtractor interface {
	Extract(text string) Contact
}

// RegexContactExtractor is the pattern-based extractor used by default.
// A name is either introduced ("my name is", "I'm", "call me") or the first run of capitalised words.
// Text typed in lower case falls back to the same patterns matched case-insensitively.
type RegexContactExtractor struct{}

var (
	introducedNamePattern = regexp.MustCompile(`(?i:name is|i'm|my name|call me)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	bareNamePattern       = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	looseIntroducedName   = regexp.MustCompile(`(?i)(?:my name is|name is|i'm|i am|call me|my name)\s+([a-z]+(?:\s+[a-z]+)*)`)
	looseWordRun          = regexp.MustCompile(`(?i)[a-z]+(?:\s+[a-z]+)*`)
	phonePattern          = regexp.MustCompile(`(\+?254\d{9}|\d{10}|\d{9})`)
	emailPattern          = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	timePattern           = regexp.MustCompile(`(?i)(\d{1,2}):?(\d{2})?\s*(am|pm)`)
)

func (RegexContactExtractor) Extract(text string) Contact {
	var c Contact
	if m := introducedNamePattern.FindStringSubmatch(text); m != nil {
		c.Name = m[1]
	} else if m := bareNamePattern.FindStringSubmatch(text); m != nil {
		c.Name = m[1]
	} else {
		c.Name = looseName(text)
	}
	if m := phonePattern.FindStringSubmatch(text); m != nil {
		c.Phone = m[1]
	}
	if m := emailPattern.FindStringSubmatch(text); m != nil {
		c.Email = m[1]
	}
	return c
}

// nameStopWords end a lower-case name; "jane doe and my phone is" yields "jane doe".
var nameStopWords = map[string]bool{
	"a": true, "am": true, "and": true, "at": true, "call": true, "contact": true,
	"email": true, "hello": true, "hey": true, "hi": true, "i": true, "im": true,
	"is": true, "it": true, "m": true, "mail": true, "me": true, "mobile": true,
	"my": true, "name": true, "no": true, "number": true, "ok": true, "on": true,
	"or": true, "phone": true, "please": true, "s": true, "tel": true, "the": true,
	"via": true, "with": true, "yes": true,
}

const maxNameWords = 3

// looseName reads a name from text with no capitalisation.
func looseName(text string) string {
	if m := looseIntroducedName.FindStringSubmatch(text); m != nil {
		if name := leadingName(strings.Fields(m[1]), false); name != "" {
			return name
		}
	}
	for _, run := range looseWordRun.FindAllString(text, -1) {
		if name := leadingName(strings.Fields(run), true); name != "" {
			return name
		}
	}
	return ""
}

// leadingName collects words up to the first stop word, optionally skipping stop words before it.
func leadingName(words []string, skipLeading bool) string {
	var name []string
	for _, w := range words {
		if nameStopWords[strings.ToLower(w)] {
			if len(name) == 0 && skipLeading {
				continue
			}
			break
		}
		name = append(name, w)
		if len(name) == maxNameWords {
			break
		}
	}
	return strings.Join(name, " ")
}

// ParseTime finds a clock time such as "10am" or "2:30 pm" and normalises it to "2:30 PM".
func ParseTime(text string) (string, bool) {
	m := timePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return "", false
		}
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, strings.ToUpper(m[3])), true
}
