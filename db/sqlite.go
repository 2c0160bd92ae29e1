package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")
)

// ArtifactStore keeps serialized classifier artifacts in SQLite. Saving a
// name again adds a new version; Load returns the latest one.
type ArtifactStore struct {
	database *sql.DB
}

type ArtifactInfo struct {
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Open opens (and if needed creates) the artifact database at path.
func Open(path string) (*ArtifactStore, error) {
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS model_artifacts (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        payload BLOB NOT NULL,
        checksum TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_model_artifacts_name ON model_artifacts(name, id);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &ArtifactStore{database: database}, nil
}

// Save stores payload under name and returns its metadata.
func (s *ArtifactStore) Save(ctx context.Context, name string, payload []byte) (ArtifactInfo, error) {
	if name == "" {
		return ArtifactInfo{}, errors.New("artifact name required")
	}
	if len(payload) == 0 {
		return ArtifactInfo{}, errors.New("artifact payload is empty")
	}

	info := ArtifactInfo{
		Name:      name,
		Checksum:  checksumOf(payload),
		Size:      len(payload),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.database.ExecContext(ctx, `
        INSERT INTO model_artifacts (name, payload, checksum, created_at)
        VALUES (?, ?, ?, ?)`,
		info.Name, payload, info.Checksum, info.CreatedAt)
	if err != nil {
		return ArtifactInfo{}, err
	}
	return info, nil
}

// Load returns the latest payload stored under name.
func (s *ArtifactStore) Load(ctx context.Context, name string) ([]byte, error) {
	var (
		payload  []byte
		checksum string
	)
	err := s.database.QueryRowContext(ctx, `
        SELECT payload, checksum
        FROM model_artifacts
        WHERE name = ?
        ORDER BY id DESC
        LIMIT 1`, name).Scan(&payload, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	if sum := checksumOf(payload); sum != checksum {
		return nil, fmt.Errorf("%w: %s stored %s, payload hashes to %s", ErrChecksumMismatch, name, checksum, sum)
	}
	return payload, nil
}

// List returns the latest version of every stored artifact.
func (s *ArtifactStore) List(ctx context.Context) ([]ArtifactInfo, error) {
	rows, err := s.database.QueryContext(ctx, `
        SELECT name, checksum, length(payload), created_at
        FROM model_artifacts
        WHERE id IN (SELECT MAX(id) FROM model_artifacts GROUP BY name)
        ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := make([]ArtifactInfo, 0)
	for rows.Next() {
		var info ArtifactInfo
		if err := rows.Scan(&info.Name, &info.Checksum, &info.Size, &info.CreatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func checksumOf(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *ArtifactStore) Close() error {
	return s.database.Close()
}
