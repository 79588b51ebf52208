package replybot

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/memexshot/memexshot/internal/pkg/solana"
)

const maxSymbolLen = 10

// SymbolResolver looks up a token symbol by mint when the transaction itself
// does not carry one
type SymbolResolver interface {
	TokenSymbol(ctx context.Context, mint string) (string, error)
}

// TickerExtractor recovers the launched token's ticker from a confirmed
// transaction. Strategies run in order of cost: log messages first, then the
// parsed metadata instruction, then a metadata API lookup.
type TickerExtractor struct {
	Resolver SymbolResolver
}

// Extract returns the uppercased ticker, or empty if no strategy succeeded
func (e *TickerExtractor) Extract(ctx context.Context, tx *solana.Transaction, mint string) string {
	if ticker := tickerFromLogs(tx); ticker != "" {
		return ticker
	}
	if ticker := tickerFromMetadataInstruction(tx); ticker != "" {
		return ticker
	}
	if e.Resolver != nil {
		symbol, err := e.Resolver.TokenSymbol(ctx, mint)
		if err != nil {
			log.Warnf("[ReplyBot] Metadata lookup for %s failed: %v", mint, err)
			return ""
		}
		return strings.ToUpper(symbol)
	}
	return ""
}

// tickerFromLogs scans log messages for a Symbol:/Ticker:/Token: marker
// followed by a short token
func tickerFromLogs(tx *solana.Transaction) string {
	if tx == nil || tx.Meta == nil {
		return ""
	}
	for _, line := range tx.Meta.LogMessages {
		if !strings.Contains(line, "Token:") && !strings.Contains(line, "Symbol:") {
			continue
		}
		parts := strings.Fields(line)
		for i, part := range parts {
			if part != "Symbol:" && part != "Ticker:" && part != "Token:" {
				continue
			}
			if i+1 >= len(parts) {
				continue
			}
			ticker := strings.Trim(parts[i+1], `,"'`)
			if ticker != "" && len(ticker) <= maxSymbolLen {
				return strings.ToUpper(ticker)
			}
		}
	}
	return ""
}

func tickerFromMetadataInstruction(tx *solana.Transaction) string {
	if tx == nil {
		return ""
	}
	for _, inst := range tx.Transaction.Message.Instructions {
		if inst.Parsed == nil || inst.Parsed.Type != "createMetadataAccounts" {
			continue
		}
		if symbol := inst.Parsed.Info.Symbol; symbol != "" {
			return strings.ToUpper(symbol)
		}
	}
	return ""
}
