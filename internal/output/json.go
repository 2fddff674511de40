package output

import (
	"encoding/json"
	"io"

	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/stats"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) encoder(w io.Writer) *json.Encoder {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder
}

// Format outputs the dashboard as JSON
func (f *JSONFormatter) Format(d *Dashboard, w io.Writer) error {
	return f.encoder(w).Encode(d)
}

// FormatLeaderboard outputs the contributor board as JSON
func (f *JSONFormatter) FormatLeaderboard(board []model.UserActivity, w io.Writer) error {
	return f.encoder(w).Encode(board)
}

// FormatHistory outputs recorded run snapshots as JSON
func (f *JSONFormatter) FormatHistory(history []stats.Snapshot, w io.Writer) error {
	return f.encoder(w).Encode(history)
}
