package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-whitelist/core"
	"github.com/uptrace/bun"
)

// CredentialStore keeps the single shared token in whitelist_tokens.
type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*tokenRecord]
}

func NewCredentialStore(db *bun.DB) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*tokenRecord](db, tokenHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid token repository wiring: %w", err)
		}
	}
	return &CredentialStore{db: db, repo: repo}, nil
}

func (s *CredentialStore) Get(ctx context.Context) (core.Token, error) {
	if s == nil || s.db == nil {
		return core.Token{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record := &tokenRecord{}
	err := s.db.NewSelect().
		Model(record).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Token{}, core.ErrCredentialNotFound
		}
		return core.Token{}, err
	}
	return record.toDomain(), nil
}

// Replace clears the table and stores token in one transaction, so readers
// never observe zero or two rows.
func (s *CredentialStore) Replace(ctx context.Context, token core.Token) (core.Token, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.Token{}, fmt.Errorf("sqlstore: credential store is not configured")
	}

	var stored core.Token
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*tokenRecord)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return err
		}
		created, err := s.repo.CreateTx(ctx, tx, newTokenRecord(token, time.Now().UTC()))
		if err != nil {
			return err
		}
		stored = created.toDomain()
		return nil
	})
	if err != nil {
		return core.Token{}, err
	}
	return stored, nil
}
