package replybot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/memexshot/memexshot/app/models"
	"github.com/memexshot/memexshot/app/repository"
	"github.com/memexshot/memexshot/internal/pkg/config"
	"github.com/memexshot/memexshot/internal/pkg/metrics/counter"
	"github.com/memexshot/memexshot/internal/pkg/solana"
)

const (
	signatureFetchLimit = 10

	// processed-signature memory bounds
	processedHighWater = 100
	processedKeep      = 50
)

// ChainReader is the subset of the RPC client the monitor needs
type ChainReader interface {
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]solana.SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error)
}

// Worker watches the treasury wallet for launch swaps and replies to the
// originating tweet once the coin is confirmed on-chain
type Worker struct {
	cfg       *config.ReplyBotConfig
	coins     repository.CoinRepository
	replies   repository.ReplyRepository
	chain     ChainReader
	matcher   *Matcher
	extractor *TickerExtractor
	pool      *AccountPool

	processed      map[string]struct{}
	processedOrder []string
	now            func() time.Time
}

// NewWorker creates a reply bot worker
func NewWorker(
	cfg *config.ReplyBotConfig,
	coins repository.CoinRepository,
	replies repository.ReplyRepository,
	chain ChainReader,
	resolver SymbolResolver,
	pool *AccountPool,
) *Worker {
	return &Worker{
		cfg:     cfg,
		coins:   coins,
		replies: replies,
		chain:   chain,
		matcher: &Matcher{
			ProgramAddress: cfg.ProgramAddress,
			USDCMint:       cfg.USDCMint,
			WalletAddress:  cfg.WalletAddress,
		},
		extractor: &TickerExtractor{Resolver: resolver},
		pool:      pool,
		processed: make(map[string]struct{}),
		now:       time.Now,
	}
}

// Run polls until the context is cancelled
func (w *Worker) Run(ctx context.Context) {
	log.Infof("[ReplyBot] Monitoring wallet: %s", w.cfg.WalletAddress)
	log.Infof("[ReplyBot] Reply accounts loaded: %d", w.pool.Len())

	for {
		interval := w.cfg.PollInterval
		if err := w.Tick(ctx); err != nil {
			log.Errorf("[ReplyBot] Tick failed: %v", err)
			interval = 2 * w.cfg.PollInterval
		}

		select {
		case <-ctx.Done():
			log.Info("[ReplyBot] Stopping")
			return
		case <-time.After(interval):
		}
	}
}

// Tick inspects the wallet's recent transactions, oldest first
func (w *Worker) Tick(ctx context.Context) error {
	sigs, err := w.chain.GetSignaturesForAddress(ctx, w.cfg.WalletAddress, signatureFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch signatures: %w", err)
	}

	for i := len(sigs) - 1; i >= 0; i-- {
		sig := sigs[i]
		if _, ok := w.processed[sig.Signature]; ok {
			continue
		}
		if w.tooOld(sig) {
			continue
		}

		if err := w.processSignature(ctx, sig); err != nil {
			log.Errorf("[ReplyBot] Error processing %s: %v", sig.Signature, err)
		}
		w.markProcessed(sig.Signature)
	}
	return nil
}

func (w *Worker) tooOld(sig solana.SignatureInfo) bool {
	if sig.BlockTime == nil {
		return false
	}
	return w.now().Sub(time.Unix(*sig.BlockTime, 0)) > w.cfg.MaxTxAge
}

func (w *Worker) markProcessed(signature string) {
	w.processed[signature] = struct{}{}
	w.processedOrder = append(w.processedOrder, signature)

	if len(w.processedOrder) <= processedHighWater {
		return
	}
	drop := w.processedOrder[:len(w.processedOrder)-processedKeep]
	for _, old := range drop {
		delete(w.processed, old)
	}
	w.processedOrder = append([]string(nil), w.processedOrder[len(w.processedOrder)-processedKeep:]...)
}

// processSignature checks one transaction for a launch swap and replies if a
// matching coin is found
func (w *Worker) processSignature(ctx context.Context, sig solana.SignatureInfo) error {
	tx, err := w.chain.GetTransaction(ctx, sig.Signature)
	if err != nil {
		return fmt.Errorf("fetch transaction: %w", err)
	}
	if tx == nil || !w.matcher.IsLaunchSwap(tx) {
		return nil
	}

	log.Infof("[ReplyBot] Launch swap detected: %s", sig.Signature)

	token := w.matcher.ExtractLaunchToken(tx)
	if token == nil {
		log.Warn("[ReplyBot] No launch token found in swap")
		return nil
	}

	ticker := w.extractor.Extract(ctx, tx, token.Mint)
	if ticker == "" {
		log.Warnf("[ReplyBot] Could not extract ticker for mint %s", token.Mint)
		return nil
	}

	coin, err := w.coins.LatestByTicker(ticker)
	if err != nil {
		return fmt.Errorf("look up coin %s: %w", ticker, err)
	}
	if coin == nil {
		log.Warnf("[ReplyBot] No coin found with ticker %s", ticker)
		return nil
	}

	exists, err := w.replies.ExistsForTweet(coin.TweetID)
	if err != nil {
		return fmt.Errorf("check reply record: %w", err)
	}
	if exists {
		log.Infof("[ReplyBot] Already replied to tweet %s", coin.TweetID)
		return nil
	}

	return w.reply(ctx, coin, sig.Signature, token.Mint)
}

// reply records intent first, then sends. The unique tweet_id on the record
// is what makes a concurrent or re-observed confirmation harmless.
func (w *Worker) reply(ctx context.Context, coin *models.Coin, signature, mint string) error {
	record := &models.ReplyRecord{
		CoinID:      coin.ID,
		TweetID:     coin.TweetID,
		TwitterUser: coin.TwitterUser,
		Ticker:      coin.Ticker,
		TxSignature: signature,
		TokenMint:   mint,
		Status:      models.ReplyStatusSending,
		ScheduledAt: w.now(),
	}
	if err := w.replies.Create(record); err != nil {
		if errors.Is(err, repository.ErrDuplicateTweet) {
			log.Infof("[ReplyBot] Reply for tweet %s already claimed", coin.TweetID)
			return nil
		}
		return fmt.Errorf("create reply record: %w", err)
	}

	account := w.pool.Next()
	if account == nil {
		log.Warn("[ReplyBot] All accounts at daily limit or waiting cooldown")
		return w.replies.MarkFailed(record.ID, "no available account")
	}

	text := w.buildReplyText(coin.TwitterUser, signature)
	log.Infof("[ReplyBot] Sending reply to tweet %s using %s", coin.TweetID, account.Name)

	replyID, err := account.Sender.CreateReply(ctx, text, coin.TweetID)
	if err != nil {
		log.Errorf("[ReplyBot] Failed to send reply: %v", err)
		return w.replies.MarkFailed(record.ID, err.Error())
	}

	w.pool.MarkUsed(account)
	counter.Add(counter.EventRepliesSent)
	log.Infof("[ReplyBot] Reply sent, tweet ID: %s", replyID)
	return w.replies.MarkSent(record.ID, account.Name, w.now())
}

func (w *Worker) buildReplyText(twitterUser, signature string) string {
	username := strings.TrimPrefix(twitterUser, "@")
	return fmt.Sprintf("@%s %s\n\n📊 solscan.io/tx/%s", username, w.cfg.ReplyMessage, signature)
}
