package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"dhan-trader/internal/models"
)

// FileSignalSource reads signals from a drop file written by the external
// advisory process. The file holds a JSON array; it is consumed (removed)
// once read so each signal is acted on at most once. A missing file means
// an idle cycle.
type FileSignalSource struct {
	path string
}

// NewFileSignalSource creates a source reading from path.
func NewFileSignalSource(path string) *FileSignalSource {
	return &FileSignalSource{path: path}
}

type fileSignal struct {
	SecurityID      string                 `json:"security_id"`
	Symbol          string                 `json:"symbol"`
	ExchangeSegment string                 `json:"exchange_segment"`
	LastPrice       float64                `json:"last_price"`
	Recommendation  map[string]interface{} `json:"recommendation"`
}

// Poll reads and consumes the pending signals.
func (s *FileSignalSource) Poll(ctx context.Context) ([]Signal, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading signal file %s: %w", s.path, err)
	}

	var raw []fileSignal
	if err := json.Unmarshal(data, &raw); err != nil {
		// Consume the broken file too, otherwise it would poison every cycle.
		os.Remove(s.path)
		return nil, fmt.Errorf("parsing signal file %s: %w", s.path, err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("consuming signal file %s: %w", s.path, err)
	}

	signals := make([]Signal, 0, len(raw))
	for _, item := range raw {
		signals = append(signals, Signal{
			SecurityID:      item.SecurityID,
			Symbol:          item.Symbol,
			ExchangeSegment: models.ExchangeSegment(item.ExchangeSegment),
			LastPrice:       item.LastPrice,
			Recommendation:  item.Recommendation,
		})
	}
	return signals, nil
}

var _ SignalSource = (*FileSignalSource)(nil)
