package ingest

import (
	"regexp"
	"strings"
)

const (
	minTickerLen = 3
	maxTickerLen = 10
)

// Parser matches the launch command grammar in tweet text. Two orderings are
// accepted, both case-insensitive:
//
//	@bot KEYWORD $TICKER
//	KEYWORD $TICKER @bot
//
// The dollar prefix on the ticker is optional.
type Parser struct {
	mentionFirst *regexp.Regexp
	mentionLast  *regexp.Regexp
}

// NewParser builds a parser for the given bot mention and command keyword
func NewParser(botUsername, keyword string) *Parser {
	bot := regexp.QuoteMeta(botUsername)
	kw := regexp.QuoteMeta(keyword)
	return &Parser{
		mentionFirst: regexp.MustCompile(`(?i)@` + bot + `\s+` + kw + `\s+\$?([A-Za-z0-9]+)`),
		mentionLast:  regexp.MustCompile(`(?i)` + kw + `\s+\$?([A-Za-z0-9]+)\s+@` + bot),
	}
}

// Parse extracts the ticker from tweet text. It returns the uppercased ticker
// and true on a valid command, or empty string and false when the text does
// not match or the ticker length is out of range.
func (p *Parser) Parse(text string) (string, bool) {
	// Collapse whitespace and newlines so the grammar only deals with single
	// spaces
	text = strings.Join(strings.Fields(text), " ")

	match := p.mentionFirst.FindStringSubmatch(text)
	if match == nil {
		match = p.mentionLast.FindStringSubmatch(text)
	}
	if match == nil {
		return "", false
	}

	ticker := strings.ToUpper(match[1])
	if len(ticker) < minTickerLen || len(ticker) > maxTickerLen {
		return "", false
	}
	return ticker, true
}
