package index

import (
	"fmt"

	"github.com/wxloong08/MindNexus/internal/models"
)

// AddAiLink records an AI-suggested semantic link between two note paths.
// Re-suggesting an existing pair is absorbed.
func (db *DB) AddAiLink(source, target string) error {
	_, err := db.conn.Exec(`INSERT OR IGNORE INTO ai_links (source, target) VALUES (?, ?)`, source, target)
	if err != nil {
		return fmt.Errorf("index: add ai link: %w", err)
	}
	return nil
}

// RemoveAiLink drops a suggestion. Removing one that never existed is not
// an error.
func (db *DB) RemoveAiLink(source, target string) error {
	_, err := db.conn.Exec(`DELETE FROM ai_links WHERE source = ? AND target = ?`, source, target)
	if err != nil {
		return fmt.Errorf("index: remove ai link: %w", err)
	}
	return nil
}

// ListAiLinks returns every stored suggestion, oldest first. Suggestions
// whose endpoints have since left the vault are returned as stored; the
// layout engine filters them.
func (db *DB) ListAiLinks() ([]models.AiLink, error) {
	rows, err := db.conn.Query(`SELECT source, target, created_at FROM ai_links ORDER BY created_at, source, target`)
	if err != nil {
		return nil, fmt.Errorf("index: list ai links: %w", err)
	}
	defer rows.Close()

	var out []models.AiLink
	for rows.Next() {
		var l models.AiLink
		if err := rows.Scan(&l.Source, &l.Target, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
