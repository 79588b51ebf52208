package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/memexshot/memexshot/app/models"
	"github.com/memexshot/memexshot/app/repository"
	"github.com/memexshot/memexshot/internal/pkg/config"
	"github.com/memexshot/memexshot/internal/pkg/metrics/counter"
	"github.com/memexshot/memexshot/internal/pkg/ratelimit"
	"github.com/memexshot/memexshot/internal/pkg/twitter"
)

const coinDescription = "This coin was created via memeXshot"

// Feed is the external tweet source polled by the worker
type Feed interface {
	SearchRecent(ctx context.Context, query, sinceID string) (*twitter.SearchResult, error)
}

// Worker polls the tweet feed for launch commands and inserts matching work
// items into the queue table. It owns the pagination cursor and an in-process
// seen set; actual dedup correctness rests on the store's unique tweet_id.
type Worker struct {
	cfg     *config.IngestConfig
	parser  *Parser
	feed    Feed
	queue   repository.QueueRepository
	limiter ratelimit.Limiter

	seen    map[string]struct{}
	sinceID string
}

// NewWorker creates an ingestion worker
func NewWorker(cfg *config.IngestConfig, feed Feed, queue repository.QueueRepository, limiter ratelimit.Limiter) *Worker {
	return &Worker{
		cfg:     cfg,
		parser:  NewParser(cfg.BotUsername, cfg.SearchKeyword),
		feed:    feed,
		queue:   queue,
		limiter: limiter,
		seen:    make(map[string]struct{}),
	}
}

// Seed loads the seen set and the pagination cursor from the queue table so a
// restart does not re-ingest or rewind
func (w *Worker) Seed() error {
	ids, err := w.queue.ListTweetIDs()
	if err != nil {
		return fmt.Errorf("load processed tweets: %w", err)
	}
	for _, id := range ids {
		w.seen[id] = struct{}{}
	}

	newest, err := w.queue.NewestTweetID()
	if err != nil {
		return fmt.Errorf("load last seen tweet: %w", err)
	}
	w.sinceID = newest

	log.Infof("[Ingest] Seeded %d processed tweets, cursor=%q", len(w.seen), w.sinceID)
	return nil
}

// Run polls until the context is cancelled
func (w *Worker) Run(ctx context.Context) {
	log.Infof("[Ingest] Monitoring for: @%s %s $TICKER (limit %d/user/day, min %d followers)",
		w.cfg.BotUsername, w.cfg.SearchKeyword, w.cfg.MaxDailyPerUser, w.cfg.MinFollowers)

	for {
		interval := w.cfg.PollInterval
		if err := w.Tick(ctx); err != nil {
			log.Errorf("[Ingest] Tick failed: %v", err)
			// Back off a bit harder after a failed poll
			interval = 2 * w.cfg.PollInterval
		}

		select {
		case <-ctx.Done():
			log.Info("[Ingest] Stopping")
			return
		case <-time.After(interval):
		}
	}
}

// Tick runs one poll: search, then process the batch oldest-first
func (w *Worker) Tick(ctx context.Context) error {
	query := fmt.Sprintf("@%s %s -is:retweet has:images", w.cfg.BotUsername, w.cfg.SearchKeyword)

	result, err := w.feed.SearchRecent(ctx, query, w.sinceID)
	if err != nil {
		return fmt.Errorf("search tweets: %w", err)
	}
	if len(result.Data) == 0 {
		return nil
	}

	log.Infof("[Ingest] Found %d new tweets", len(result.Data))

	// Advance the cursor first; the seen set covers tweets in this batch we
	// end up skipping
	if result.Meta.NewestID != "" {
		w.sinceID = result.Meta.NewestID
	} else {
		w.sinceID = result.Data[0].ID
	}

	// Oldest first so queue order reflects submission order
	for i := len(result.Data) - 1; i >= 0; i-- {
		w.processTweet(ctx, &result.Data[i], result)
	}
	return nil
}

func (w *Worker) processTweet(ctx context.Context, tweet *twitter.Tweet, batch *twitter.SearchResult) {
	if _, ok := w.seen[tweet.ID]; ok {
		return
	}

	ticker, ok := w.parser.Parse(tweet.Text)
	if !ok {
		log.Debugf("[Ingest] Invalid format in tweet %s", tweet.ID)
		return
	}

	author := batch.UserByID(tweet.AuthorID)
	if author == nil {
		log.Warnf("[Ingest] Could not find author for tweet %s", tweet.ID)
		return
	}
	followers := author.PublicMetrics.FollowersCount

	if followers < w.cfg.MinFollowers {
		log.Infof("[Ingest] @%s has only %d followers (min: %d)", author.Username, followers, w.cfg.MinFollowers)
		w.insertRejected(tweet, ticker, author, batch)
		w.seen[tweet.ID] = struct{}{}
		return
	}

	allowed, err := w.limiter.Check(ctx, author.Username)
	if err != nil {
		log.Errorf("[Ingest] Rate limit check for @%s: %v", author.Username, err)
		return
	}
	if !allowed {
		log.Infof("[Ingest] Rate limit reached for @%s", author.Username)
		// The cursor has already moved past this batch, so a skipped tweet
		// is only re-fetched once a restart re-seeds the cursor from the
		// queue table
		if w.cfg.RateLimitMarkSeen {
			// Legacy behavior: the tweet is never reconsidered, even after
			// the user's daily window resets
			w.seen[tweet.ID] = struct{}{}
		}
		return
	}

	imageURL := batch.PhotoURL(tweet)
	if imageURL == "" {
		log.Warnf("[Ingest] No image found in tweet %s", tweet.ID)
		return
	}

	item := w.buildItem(tweet, ticker, author, imageURL)
	if err := w.queue.Create(item); err != nil {
		if errors.Is(err, repository.ErrDuplicateTweet) {
			w.seen[tweet.ID] = struct{}{}
			return
		}
		log.Errorf("[Ingest] Error adding tweet %s to queue: %v", tweet.ID, err)
		return
	}

	w.seen[tweet.ID] = struct{}{}
	counter.Add(counter.EventTweetsIngested)
	if err := w.limiter.Increment(ctx, author.Username); err != nil {
		log.Errorf("[Ingest] Rate limit increment for @%s: %v", author.Username, err)
	}
	log.Infof("[Ingest] Added to queue: %s from tweet %s by @%s", ticker, tweet.ID, author.Username)
}

// insertRejected records an auditable rejection for an under-threshold
// requester. The row is terminal and never promoted.
func (w *Worker) insertRejected(tweet *twitter.Tweet, ticker string, author *twitter.User, batch *twitter.SearchResult) {
	imageURL := batch.PhotoURL(tweet)
	if imageURL == "" {
		imageURL = "NO_IMAGE"
	}

	item := w.buildItem(tweet, ticker, author, imageURL)
	item.Status = models.QueueStatusRejected
	item.ErrorMessage = fmt.Sprintf("Insufficient followers: %d (min: %d)",
		author.PublicMetrics.FollowersCount, w.cfg.MinFollowers)

	if err := w.queue.Create(item); err != nil && !errors.Is(err, repository.ErrDuplicateTweet) {
		log.Errorf("[Ingest] Error adding rejected tweet %s: %v", tweet.ID, err)
		return
	}
	counter.Add(counter.EventTweetsRejected)
	log.Infof("[Ingest] Added to queue as rejected: %s from @%s", ticker, author.Username)
}

func (w *Worker) buildItem(tweet *twitter.Tweet, ticker string, author *twitter.User, imageURL string) *models.TweetQueueItem {
	tweetURL := fmt.Sprintf("https://twitter.com/%s/status/%s", author.Username, tweet.ID)
	website := w.cfg.CoinWebsiteType
	if website == "tweet_url" {
		website = tweetURL
	}

	name := author.Name
	if name == "" {
		name = ticker
	}

	return &models.TweetQueueItem{
		TweetID:         tweet.ID,
		TwitterUser:     author.Username,
		Ticker:          ticker,
		Name:            name,
		Description:     coinDescription,
		Website:         website,
		Twitter:         w.cfg.CoinTwitterHandle,
		ImageURL:        imageURL,
		ProfileImageURL: author.ProfileImageURL,
		FollowersCount:  author.PublicMetrics.FollowersCount,
		Status:          models.QueueStatusQueued,
	}
}
