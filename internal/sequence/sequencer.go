// Package sequence issues the human-readable lead identifiers
// (LEAD-{year}-{KEY}-{seq}) that must never collide, even under concurrent
// lead creation. Each (year, category key) pair owns one counter row which is
// bumped with a single atomic UPDATE ... RETURNING.
package sequence

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"edupoint-crm/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const leadPrefix = "LEAD"

// CategoryKey derives the identifier segment from a course/category name:
// first three letters, uppercased; "GEN" when absent.
func CategoryKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "GEN"
	}
	if len(name) > 3 {
		name = name[:3]
	}
	return strings.ToUpper(name)
}

func counterKey(year int, key string) string {
	return fmt.Sprintf("lead-%d-%s", year, key)
}

// NextLeadID returns the next identifier for the category, e.g.
// "LEAD-2025-PCC-00042". On a storage failure it retries the atomic increment
// once and then falls back to a timestamp+random identifier. The fallback is
// still unique but breaks the monotonic, human-readable contract, so it is
// logged at Error level for operators.
func NextLeadID(db *gorm.DB, category string) string {
	year := time.Now().Year()
	key := CategoryKey(category)

	seq, err := nextSeq(db, year, key)
	if err != nil {
		slog.Warn("Lead counter increment failed, retrying once", "key", counterKey(year, key), "error", err)
		seq, err = nextSeq(db, year, key)
	}
	if err != nil {
		id := fallbackID(year, key)
		slog.Error("Lead counter unavailable, issued non-sequential fallback id",
			"key", counterKey(year, key), "leadId", id, "error", err)
		return id
	}

	return fmt.Sprintf("%s-%d-%s-%05d", leadPrefix, year, key, seq)
}

func nextSeq(db *gorm.DB, year int, key string) (int64, error) {
	if err := ensureCounter(db, year, key); err != nil {
		return 0, err
	}

	var seq int64
	res := db.Raw(
		"UPDATE lead_counters SET seq = seq + 1 WHERE key = ? RETURNING seq",
		counterKey(year, key),
	).Scan(&seq)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("counter row %q missing", counterKey(year, key))
	}
	return seq, nil
}

// ensureCounter lazily creates the counter row, seeded from the highest
// sequence number already issued under this key so a fresh deployment never
// collides with pre-existing leads. Concurrent creators race on the insert;
// ON CONFLICT DO NOTHING lets the loser proceed to the atomic increment.
func ensureCounter(db *gorm.DB, year int, key string) error {
	ck := counterKey(year, key)

	var count int64
	if err := db.Model(&models.LeadCounter{}).Where("key = ?", ck).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	prefix := fmt.Sprintf("%s-%d-%s-", leadPrefix, year, key)
	var lastIDs []string
	err := db.Model(&models.Lead{}).
		Where("lead_id LIKE ?", prefix+"%").
		Order("lead_id DESC").
		Limit(1).
		Pluck("lead_id", &lastIDs).Error
	if err != nil {
		return err
	}

	var maxSeq int64
	if len(lastIDs) > 0 {
		parts := strings.Split(lastIDs[0], "-")
		if n, perr := strconv.ParseInt(parts[len(parts)-1], 10, 64); perr == nil {
			maxSeq = n
		}
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.LeadCounter{Key: ck, Seq: maxSeq})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		slog.Info("Lead counter initialized", "key", ck, "seq", maxSeq)
	}
	return nil
}

// fallbackID is best-effort only: millisecond timestamp plus a slice of a
// random UUID. Fallback ids are never reconciled back into the counter.
func fallbackID(year int, key string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%d-%s-%d%s", leadPrefix, year, key, time.Now().UnixMilli(), suffix)
}

// NextBatchID issues batch identifiers (BATCH-{year}-{seq:04d}) by counting
// existing rows. Batches are created rarely and only by elevated roles, so
// the simple count+1 scheme is kept as-is.
func NextBatchID(db *gorm.DB) (string, error) {
	year := time.Now().Year()
	var count int64
	if err := db.Model(&models.Batch{}).
		Where("batch_id LIKE ?", fmt.Sprintf("BATCH-%d-%%", year)).
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("BATCH-%d-%04d", year, count+1), nil
}
