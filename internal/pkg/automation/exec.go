package automation

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/memexshot/memexshot/app/models"
)

// ExecRunner drives the coin creation by invoking an external command once
// per coin. The coin's fields are passed as COIN_* environment variables so
// the command needs no store access. A non-zero exit marks the coin failed.
type ExecRunner struct {
	Command string
}

// NewExecRunner creates a runner for the given shell command line
func NewExecRunner(command string) *ExecRunner {
	return &ExecRunner{Command: command}
}

func (r *ExecRunner) CreateCoin(ctx context.Context, coin *models.Coin) error {
	parts := strings.Fields(r.Command)
	if len(parts) == 0 {
		return fmt.Errorf("no automation command configured")
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Env = append(os.Environ(),
		"COIN_TICKER="+coin.Ticker,
		"COIN_NAME="+coin.Name,
		"COIN_DESCRIPTION="+coin.Description,
		"COIN_WEBSITE="+coin.Website,
		"COIN_TWITTER="+coin.Twitter,
		"COIN_IMAGE_FILENAME="+coin.ImageFilename,
		fmt.Sprintf("COIN_ID=%d", coin.ID),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("automation command failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
