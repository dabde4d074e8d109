package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// SnapshotRow is one stored scene document.
type SnapshotRow struct {
	ID        int64
	Name      string
	Digest    []byte
	Document  []byte
	Entities  int32
	CreatedAt time.Time
}

// querier is the part of *pgxpool.Pool the repo uses.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type SnapshotRepo struct {
	db  querier
	log *zap.Logger
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db.Pool, log: db.log}
}

// Digest returns the content hash stored alongside a document.
func Digest(doc []byte) []byte {
	sum := blake2b.Sum256(doc)
	return sum[:]
}

// Save stores doc as the newest snapshot of name. A document identical to the
// latest one is not written again; saved reports whether a row was added.
func (r *SnapshotRepo) Save(ctx context.Context, name string, doc []byte, entities int) (saved bool, err error) {
	digest := Digest(doc)

	var latest []byte
	err = r.db.QueryRow(ctx,
		`SELECT digest FROM scene_snapshots WHERE name = $1 ORDER BY id DESC LIMIT 1`, name,
	).Scan(&latest)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("snapshot %s latest digest: %w", name, err)
	}
	if bytes.Equal(latest, digest) {
		r.log.Debug("snapshot unchanged, skipped", zap.String("name", name))
		return false, nil
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO scene_snapshots (name, digest, document, entities)
		 VALUES ($1, $2, $3, $4)`,
		name, digest, doc, int32(entities),
	)
	if err != nil {
		return false, fmt.Errorf("snapshot %s insert: %w", name, err)
	}
	r.log.Info("snapshot saved",
		zap.String("name", name),
		zap.Int("bytes", len(doc)),
		zap.Int("entities", entities))
	return true, nil
}

// Load returns the newest snapshot of name, or nil if there is none.
func (r *SnapshotRepo) Load(ctx context.Context, name string) (*SnapshotRow, error) {
	row := &SnapshotRow{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, digest, document, entities, created_at
		 FROM scene_snapshots WHERE name = $1 ORDER BY id DESC LIMIT 1`, name,
	).Scan(&row.ID, &row.Name, &row.Digest, &row.Document, &row.Entities, &row.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(Digest(row.Document), row.Digest) {
		return nil, fmt.Errorf("snapshot %s #%d: %w", name, row.ID, ErrCorruptSnapshot)
	}
	return row, nil
}

// Prune deletes all but the newest keep snapshots of name. keep must be at
// least one so the latest snapshot always survives.
func (r *SnapshotRepo) Prune(ctx context.Context, name string, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("snapshot %s prune keep %d: %w", name, keep, ErrBadKeep)
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM scene_snapshots
		 WHERE name = $1 AND id NOT IN (
		     SELECT id FROM scene_snapshots WHERE name = $1 ORDER BY id DESC LIMIT $2)`,
		name, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("snapshot %s prune: %w", name, err)
	}
	if n := tag.RowsAffected(); n > 0 {
		r.log.Info("snapshots pruned", zap.String("name", name), zap.Int64("deleted", n), zap.Int("kept", keep))
	}
	return tag.RowsAffected(), nil
}

var (
	// ErrCorruptSnapshot is returned when a stored document no longer matches
	// its digest.
	ErrCorruptSnapshot = errors.New("snapshot digest mismatch")
	ErrBadKeep         = errors.New("snapshot prune must keep at least one")
)
