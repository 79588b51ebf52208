package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParser_Parse(t *testing.T) {
	p := NewParser("memeXshot", "Launch")

	tests := []struct {
		name   string
		text   string
		ticker string
		ok     bool
	}{
		{"keyword first", "Launch $MOON @memeXshot", "MOON", true},
		{"mention first", "@memeXshot Launch $MOON", "MOON", true},
		{"no dollar prefix", "Launch MOON @memeXshot", "MOON", true},
		{"case insensitive", "launch $moon @MEMEXSHOT", "MOON", true},
		{"lowercase ticker uppercased", "@memeXshot Launch $doge", "DOGE", true},
		{"extra words around command", "gm all! Launch $PEPE @memeXshot let's go", "PEPE", true},
		{"newlines collapsed", "Launch\n$WAGMI\n@memeXshot", "WAGMI", true},
		{"numeric ticker", "Launch $420 @memeXshot", "420", true},
		{"min length", "Launch $ABC @memeXshot", "ABC", true},
		{"max length", "Launch $ABCDEFGHIJ @memeXshot", "ABCDEFGHIJ", true},

		{"ticker too short", "Launch $AB @memeXshot", "", false},
		{"ticker too long", "Launch $ABCDEFGHIJK @memeXshot", "", false},
		{"missing mention", "Launch $MOON", "", false},
		{"missing keyword", "$MOON @memeXshot", "", false},
		{"wrong mention", "Launch $MOON @someoneelse", "", false},
		{"keyword and mention only", "Launch @memeXshot", "", false},
		{"empty text", "", "", false},
		{"mention between keyword and ticker", "Launch @memeXshot $MOON", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticker, ok := p.Parse(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.ticker, ticker)
		})
	}
}

func TestParser_CustomKeywordAndBot(t *testing.T) {
	p := NewParser("launchbot", "Create")

	ticker, ok := p.Parse("@launchbot Create $WOOF")
	assert.True(t, ok)
	assert.Equal(t, "WOOF", ticker)

	// The default grammar must not match
	_, ok = p.Parse("Launch $WOOF @launchbot")
	assert.False(t, ok)
}
