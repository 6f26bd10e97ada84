package search

import (
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Tokenize splits text into normalized tokens: markup is stripped, words are
// lowercased, tokens shorter than two runes and English stop words are dropped.
func Tokenize(text string) []string {
	f := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	}
	fields := strings.FieldsFunc(PlainText(text), f)
	var tokens []string
	for _, field := range fields {
		if utf8.RuneCountInString(field) < 2 {
			continue
		}
		token := strings.ToLower(field)
		if IsStopWord(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

var markupTag = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// PlainText returns the visible text of a fragment that may contain HTML.
// Script and style contents are dropped. Text without tags keeps every
// word; only its entities are decoded.
func PlainText(text string) string {
	if !markupTag.MatchString(text) {
		if strings.Contains(text, "&") {
			return html.UnescapeString(text)
		}
		return text
	}

	tokenizer := html.NewTokenizer(strings.NewReader(text))
	var sb strings.Builder
	inScript := false
	inStyle := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return strings.Join(strings.Fields(sb.String()), " ")
			}
			return text

		case html.StartTagToken:
			switch tokenizer.Token().Data {
			case "script":
				inScript = true
			case "style":
				inStyle = true
			}

		case html.EndTagToken:
			switch tokenizer.Token().Data {
			case "script":
				inScript = false
			case "style":
				inStyle = false
			}

		case html.TextToken:
			if !inScript && !inStyle {
				sb.WriteString(tokenizer.Token().Data)
				sb.WriteByte(' ')
			}
		}
	}
}
