// Package extract pulls intake fields out of free-text chat messages.
//
// A miss is reported as (zero, false); none of the helpers return errors.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinAge and MaxAge bound accepted ages, exclusive on both ends.
const (
	MinAge = 0
	MaxAge = 150
)

var namePatterns = []*regexp.Regexp{
	// "I'm Alex", "my name is Jane Doe", "this is John"
	regexp.MustCompile(`(?i:\b(?:i['’]?m|i am|my name is|this is|name is))\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	// a leading capitalized token: "Alex", "Jane Doe here"
	regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)(?:\s|$)`),
}

// replyIntro is the first name pattern without the capitalization rule. It is
// applied to the newest message only.
var replyIntro = regexp.MustCompile(`(?i)\b(?:i['’]?m|i am|my name is|this is|name is)\s+([a-z][a-z'-]*(?:\s+[a-z][a-z'-]*)?)\s*[.!]?$`)

var bareReply = regexp.MustCompile(`^[\pL][\pL'-]*(?:\s+[\pL][\pL'-]*){0,2}[.!]?$`)

// notNames are leading words that mark a reply as a sentence rather than a name.
var notNames = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "my": {}, "not": {}, "no": {}, "yes": {}, "ok": {}, "okay": {},
	"hi": {}, "hello": {}, "hey": {}, "thanks": {}, "please": {}, "help": {},
	"need": {}, "feeling": {}, "having": {}, "sick": {}, "just": {}, "very": {},
	"really": {}, "so": {}, "here": {}, "in": {}, "at": {}, "why": {}, "what": {},
	"fine": {}, "good": {}, "well": {}, "unwell": {}, "hurt": {}, "tired": {},
	"worried": {}, "scared": {}, "sorry": {}, "back": {}, "sure": {}, "going": {}, "calling": {},
	"i": {}, "i'm": {}, "i’m": {}, "im": {}, "it": {}, "it's": {}, "this": {}, "that": {},
	"he": {}, "she": {}, "we": {}, "they": {}, "is": {}, "and": {}, "but": {},
}

var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:i['’]?m|i am|age is|aged)\s+(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:years? old|yrs? old|years? of age)`),
	regexp.MustCompile(`^(\d+)$`),
}

// Name returns the caller's name if text introduces one.
func Name(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}

	for _, pattern := range namePatterns {
		if match := pattern.FindStringSubmatch(trimmed); match != nil {
			return strings.TrimSpace(match[1]), true
		}
	}

	if looksLikeName(trimmed) {
		return trimmed, true
	}
	return "", false
}

// NameIntro accepts a self-introduction whose name is not capitalized, such
// as "i'm alex smith" or "my name is jane doe". The intro must end the message.
func NameIntro(text string) (string, bool) {
	match := replyIntro.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return "", false
	}
	return titleName(match[1])
}

// NameReply is Name for a message that answers "what is your name?". On top
// of Name and NameIntro it accepts a bare lowercase answer such as "alex".
func NameReply(text string) (string, bool) {
	if name, ok := Name(text); ok {
		return name, true
	}
	if name, ok := NameIntro(text); ok {
		return name, true
	}
	trimmed := strings.TrimSpace(text)
	if !bareReply.MatchString(trimmed) {
		return "", false
	}
	return titleName(strings.TrimRight(trimmed, ".!"))
}

func titleName(candidate string) (string, bool) {
	words := strings.Fields(candidate)
	if len(words) == 0 {
		return "", false
	}
	if _, stop := notNames[strings.ToLower(words[0])]; stop {
		return "", false
	}
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " "), true
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}

// looksLikeName accepts short, fully capitalized replies such as "Mary-Jane O'Neil".
func looksLikeName(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, word := range words {
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// Age returns an age in (MinAge, MaxAge) if text states one.
// Out-of-range values fall through to the next pattern.
func Age(text string) (int, bool) {
	trimmed := strings.TrimSpace(text)
	for _, pattern := range agePatterns {
		match := pattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		age, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if age > MinAge && age < MaxAge {
			return age, true
		}
	}
	return 0, false
}
