package drawlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hashdraw/config"
	"hashdraw/game"
	"hashdraw/models"
)

// Writer publishes one JSON artifact per settled draw so third parties can
// verify the result against public ledger data.
type Writer struct {
	dir  string
	game *config.Game
}

// NewWriter creates a writer that publishes under dir
func NewWriter(dir string, g *config.Game) *Writer {
	return &Writer{dir: dir, game: g}
}

type drawArtifact struct {
	Draw          *models.Draw                 `json:"Draw"`
	PrizeSettings map[string]game.PrizeSetting `json:"PrizeSettings"`
	JackpotPool   int64                        `json:"JackpotPool"`
	Jackpot       int64                        `json:"Jackpot"`
	Tickets       []models.Ticket              `json:"Tickets"`
	Breakdowns    []*models.Breakdown          `json:"Breakdowns"`
	PayMemo       map[string]string            `json:"PayMemo"`
}

// PublishDrawResult writes the draw's artifact file. The file name is the
// draw id with "#" flattened for portability, e.g. XRP-95680001.json.
func (w *Writer) PublishDrawResult(result *models.DrawResult) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create draw log directory: %w", err)
	}

	amounts := game.FixedPrizeAmounts(w.game.JackpotCodeLength, w.game.TicketPrice, w.game.PrizeRankCount, w.game.PrizeRankWeight)
	artifact := drawArtifact{
		Draw:          result.Draw,
		PrizeSettings: game.FixedPrizeSettings(w.game.JackpotCodeLength, amounts),
		JackpotPool:   result.JackpotPool,
		Jackpot:       result.Jackpot,
		Tickets:       result.Tickets,
		Breakdowns:    result.Breakdowns,
		PayMemo:       map[string]string{"DrawId": result.Draw.DrawID},
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal draw artifact: %w", err)
	}

	name := strings.ReplaceAll(result.Draw.DrawID, "#", "-") + ".json"
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write draw artifact %s: %w", path, err)
	}
	return nil
}
