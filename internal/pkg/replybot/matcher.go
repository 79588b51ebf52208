package replybot

import (
	"strings"
	"time"

	"github.com/memexshot/memexshot/internal/pkg/solana"
)

// Matcher decides whether a transaction is a bonding-curve launch swap from
// the monitored wallet
type Matcher struct {
	ProgramAddress string
	USDCMint       string
	WalletAddress  string
}

// MinSwapUSDC and MaxSwapUSDC bound the launch swap amount. The curve charges
// a flat 5 USDC; the open interval absorbs rounding in uiAmount.
const (
	MinSwapUSDC = 4.9
	MaxSwapUSDC = 5.1
)

// LaunchToken is the token credited to the monitored wallet by a matched swap
type LaunchToken struct {
	Mint      string
	Amount    float64
	Timestamp *time.Time
}

// IsLaunchSwap reports whether the transaction touches the bonding-curve
// program and moves roughly 5 USDC through an inner transferChecked
func (m *Matcher) IsLaunchSwap(tx *solana.Transaction) bool {
	if tx == nil || !m.involvesProgram(tx) {
		return false
	}
	if tx.Meta == nil {
		return false
	}

	for _, group := range tx.Meta.InnerInstructions {
		for _, inst := range group.Instructions {
			if inst.Parsed == nil || inst.Parsed.Type != "transferChecked" {
				continue
			}
			info := inst.Parsed.Info
			if info.Mint != m.USDCMint || info.TokenAmount == nil || info.TokenAmount.UIAmount == nil {
				continue
			}
			amount := *info.TokenAmount.UIAmount
			if amount > MinSwapUSDC && amount < MaxSwapUSDC {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) involvesProgram(tx *solana.Transaction) bool {
	for _, key := range tx.Transaction.Message.AccountKeys {
		if key.Pubkey == m.ProgramAddress {
			return true
		}
	}
	for _, inst := range tx.Transaction.Message.Instructions {
		if inst.ProgramID == m.ProgramAddress {
			return true
		}
	}
	return false
}

// ExtractLaunchToken finds the launch token in the post balances: the first
// mint ending in "moon" owned by the monitored wallet with a positive balance
func (m *Matcher) ExtractLaunchToken(tx *solana.Transaction) *LaunchToken {
	if tx == nil || tx.Meta == nil {
		return nil
	}

	for _, balance := range tx.Meta.PostTokenBalances {
		if balance.Owner != m.WalletAddress {
			continue
		}
		if !strings.HasSuffix(balance.Mint, "moon") {
			continue
		}
		if balance.UITokenAmount.UIAmount == nil || *balance.UITokenAmount.UIAmount <= 0 {
			continue
		}

		token := &LaunchToken{
			Mint:   balance.Mint,
			Amount: *balance.UITokenAmount.UIAmount,
		}
		if tx.BlockTime != nil {
			ts := time.Unix(*tx.BlockTime, 0)
			token.Timestamp = &ts
		}
		return token
	}
	return nil
}
