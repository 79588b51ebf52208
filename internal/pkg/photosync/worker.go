package photosync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"

	"github.com/memexshot/memexshot/app/models"
	"github.com/memexshot/memexshot/app/repository"
	"github.com/memexshot/memexshot/internal/pkg/config"
	"github.com/memexshot/memexshot/internal/pkg/metrics/counter"
)

// Worker stages coin images into the local import folder and flips the
// image_synced readiness flag. Claims are process-local: only one photo sync
// instance runs, so no cross-process coordination is needed for the folder.
type Worker struct {
	cfg      *config.PhotoSyncConfig
	coins    repository.CoinRepository
	download Downloader
	importer Importer

	importFolder string
	claimed      map[uint]struct{}
	stagedURLs   map[string]struct{}
	retries      map[uint]int
	now          func() time.Time
}

// NewWorker creates a photo sync worker and ensures the import folder exists
func NewWorker(cfg *config.PhotoSyncConfig, coins repository.CoinRepository, download Downloader, importer Importer) (*Worker, error) {
	folder, err := expandHome(cfg.ImportFolder)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create import folder: %w", err)
	}

	return &Worker{
		cfg:          cfg,
		coins:        coins,
		download:     download,
		importer:     importer,
		importFolder: folder,
		claimed:      make(map[uint]struct{}),
		stagedURLs:   make(map[string]struct{}),
		retries:      make(map[uint]int),
		now:          time.Now,
	}, nil
}

// Run polls until the context is cancelled
func (w *Worker) Run(ctx context.Context) {
	log.Infof("[PhotoSync] Import folder: %s", w.importFolder)
	log.Info("[PhotoSync] Monitoring for new images")

	for {
		interval := w.cfg.PollInterval
		if err := w.Tick(ctx); err != nil {
			log.Errorf("[PhotoSync] Tick failed: %v", err)
			interval = 2 * w.cfg.PollInterval
		}

		select {
		case <-ctx.Done():
			log.Info("[PhotoSync] Stopping")
			return
		case <-time.After(interval):
		}
	}
}

// Tick syncs every unsynced pending coin, oldest first
func (w *Worker) Tick(ctx context.Context) error {
	coins, err := w.coins.ListUnsynced()
	if err != nil {
		return fmt.Errorf("check pending images: %w", err)
	}
	if len(coins) == 0 {
		return nil
	}

	log.Infof("[PhotoSync] Found %d images to sync", len(coins))

	for i := range coins {
		coin := &coins[i]
		if _, ok := w.claimed[coin.ID]; ok {
			continue
		}
		w.claimed[coin.ID] = struct{}{}

		if w.syncImage(ctx, coin) {
			delete(w.retries, coin.ID)
		} else {
			w.handleFailure(coin)
		}

		// Pause between syncs so the Photos import settles
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.SyncPause):
		}
	}
	return nil
}

// syncImage stages one coin's image and marks it synced. Returns false on any
// failure, leaving the readiness flag untouched for a retry.
func (w *Worker) syncImage(ctx context.Context, coin *models.Coin) bool {
	log.Infof("[PhotoSync] Syncing image for %s - %s", coin.Ticker, coin.Name)

	// Same URL already staged this session: reuse the library copy, record a
	// distinguishing synthetic filename, and still flip the flag
	if _, ok := w.stagedURLs[coin.ImageURL]; ok {
		filename := fmt.Sprintf("shared_image_%s_%d.jpg", coin.Ticker, w.now().Unix())
		return w.markSynced(coin, filename)
	}

	filename := coin.ImageFilename
	if filename == "" {
		user := strings.TrimPrefix(coin.TwitterUser, "@")
		filename = fmt.Sprintf("%s_%s_%d.jpg", user, coin.Ticker, w.now().Unix())
	}
	localPath := filepath.Join(w.importFolder, filename)

	data, err := w.download.Download(ctx, coin.ImageURL)
	if err != nil {
		log.Errorf("[PhotoSync] Failed to download image for %s: %v", coin.Ticker, err)
		return false
	}

	// Normalize whatever came down the wire into a plain JPEG the photo
	// library can always import
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		log.Errorf("[PhotoSync] Invalid image data for %s: %v", coin.Ticker, err)
		return false
	}
	if err := imaging.Save(img, localPath); err != nil {
		log.Errorf("[PhotoSync] Failed to stage image for %s: %v", coin.Ticker, err)
		return false
	}
	log.Infof("[PhotoSync] Downloaded to: %s", localPath)

	if err := w.importer.Import(ctx, localPath); err != nil {
		log.Errorf("[PhotoSync] Failed to import to Photos: %v", err)
		os.Remove(localPath)
		return false
	}

	// The library holds its own copy now
	os.Remove(localPath)

	w.stagedURLs[coin.ImageURL] = struct{}{}
	return w.markSynced(coin, filename)
}

func (w *Worker) markSynced(coin *models.Coin, filename string) bool {
	err := w.coins.MarkImageSynced(coin.ID, filename, w.now())
	if err == repository.ErrStatusConflict {
		// Flag already set, nothing to do
		log.Warnf("[PhotoSync] Image for %s already marked synced", coin.Ticker)
		return true
	}
	if err != nil {
		log.Errorf("[PhotoSync] Failed to mark %s synced: %v", coin.Ticker, err)
		return false
	}
	counter.Add(counter.EventImagesSynced)
	log.Infof("[PhotoSync] Sync completed for %s", coin.Ticker)
	return true
}

// handleFailure releases the claim for a retry, or parks the coin with a
// visible error once the retry budget is spent
func (w *Worker) handleFailure(coin *models.Coin) {
	delete(w.claimed, coin.ID)
	w.retries[coin.ID]++

	if w.retries[coin.ID] < w.cfg.MaxRetries {
		return
	}

	// Park it: keep the claim so this process stops hammering the URL, and
	// surface the problem on the record for manual intervention
	w.claimed[coin.ID] = struct{}{}
	msg := fmt.Sprintf("image sync failed %d times for %s", w.retries[coin.ID], coin.ImageURL)
	if err := w.coins.SetSyncError(coin.ID, msg); err != nil {
		log.Errorf("[PhotoSync] Failed to record sync error for %s: %v", coin.Ticker, err)
	}
	log.Errorf("[PhotoSync] Giving up on %s after %d attempts", coin.Ticker, w.retries[coin.ID])
}

// expandHome resolves a leading ~/ against the current user's home directory
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
