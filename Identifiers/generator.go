package Identifiers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Taskflow/Models"
	"Taskflow/Store"

	"gorm.io/gorm"
)

// Kind says which prefix an identifier gets and where existing ones live.
type Kind struct {
	Prefix string
	Table  string
	Column string
}

var (
	ProjectKind = Kind{Prefix: "PJ", Table: "projects", Column: "project_code"}
	TaskKind    = Kind{Prefix: "TK", Table: "tasks", Column: "task_code"}
)

// Generator hands out ids shaped like TK240510-0001: prefix, local date,
// then a per-day sequence.
type Generator struct {
	clock    Models.Clock
	location *time.Location
}

func NewGenerator(clock Models.Clock, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{clock: clock, location: loc}
}

// Next reserves the next id for kind inside tx. The counter row is bumped
// with a compare-and-set, so a concurrent writer makes this return a
// ConcurrencyConflict and the caller's transaction is retried.
func (g *Generator) Next(tx *Store.Store, kind Kind) (string, error) {
	key := kind.Prefix + g.clock.Now().In(g.location).Format("060102")

	var seq Models.Sequence
	err := tx.DB().Where("name = ?", key).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		last, err := g.highestExisting(tx, kind, key)
		if err != nil {
			return "", err
		}
		seq = Models.Sequence{Name: key, Last: last}
		if err := tx.Create(&seq); err != nil {
			if Store.IsDuplicateKey(err) {
				return "", Models.NewConflict("sequence", key)
			}
			return "", err
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to read sequence %s: %w", key, err)
	}

	res := tx.DB().Model(&Models.Sequence{}).
		Where("name = ? AND last = ?", key, seq.Last).
		Update("last", seq.Last+1)
	if res.Error != nil {
		return "", fmt.Errorf("failed to advance sequence %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return "", Models.NewConflict("sequence", key)
	}
	return Format(key, seq.Last+1), nil
}

func Format(key string, seq int) string {
	return fmt.Sprintf("%s-%04d", key, seq)
}

// Parse splits an id into its day key and sequence number.
func Parse(id string) (string, int, error) {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return "", 0, fmt.Errorf("malformed identifier %q", id)
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed identifier %q: %w", id, err)
	}
	return id[:i], n, nil
}

// highestExisting seeds a fresh counter from ids written before the
// counter existed, soft-deleted rows included.
func (g *Generator) highestExisting(tx *Store.Store, kind Kind, key string) (int, error) {
	var latest string
	err := tx.DB().Table(kind.Table).
		Select(kind.Column).
		Where(kind.Column+" LIKE ?", key+"-%").
		Order(kind.Column + " DESC").
		Limit(1).
		Scan(&latest).Error
	if err != nil {
		return 0, fmt.Errorf("failed to scan existing %s ids: %w", kind.Table, err)
	}
	if latest == "" {
		return 0, nil
	}
	_, n, err := Parse(latest)
	if err != nil {
		return 0, err
	}
	return n, nil
}
