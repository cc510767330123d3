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

// MemberStore keeps the registry in whitelist_members, keyed by mail.
type MemberStore struct {
	db   *bun.DB
	repo repository.Repository[*memberRecord]
}

func NewMemberStore(db *bun.DB) (*MemberStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*memberRecord](db, memberHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid member repository wiring: %w", err)
		}
	}
	return &MemberStore{db: db, repo: repo}, nil
}

func (s *MemberStore) List(ctx context.Context) ([]core.User, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: member store is not configured")
	}
	records := []*memberRecord{}
	if err := s.db.NewSelect().
		Model(&records).
		Order("creation_date ASC", "mail ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	return membersToDomain(records)
}

// Find returns the member stored under mail.
func (s *MemberStore) Find(ctx context.Context, mail core.Mail) (core.User, error) {
	if s == nil || s.repo == nil {
		return core.User{}, fmt.Errorf("sqlstore: member store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("mail", "=", mail.String()),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.User{}, err
	}
	if len(records) == 0 {
		return core.User{}, core.ErrMemberNotFound
	}
	return records[0].toDomain()
}

func (s *MemberStore) Insert(ctx context.Context, user core.User) (core.User, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.User{}, fmt.Errorf("sqlstore: member store is not configured")
	}
	if user.Mail.IsZero() {
		return core.User{}, fmt.Errorf("sqlstore: member mail is required")
	}

	var inserted core.User
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*memberRecord)(nil)).
			Where("mail = ?", user.Mail.String()).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", core.ErrMemberExists, user.Mail)
		}
		created, err := s.repo.CreateTx(ctx, tx, newMemberRecord(user, time.Now().UTC()))
		if err != nil {
			return err
		}
		inserted, err = created.toDomain()
		return err
	})
	if err != nil {
		return core.User{}, err
	}
	return inserted, nil
}

func (s *MemberStore) Delete(ctx context.Context, mail core.Mail) (core.User, error) {
	if s == nil || s.db == nil {
		return core.User{}, fmt.Errorf("sqlstore: member store is not configured")
	}

	var deleted core.User
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &memberRecord{}
		if err := tx.NewSelect().
			Model(record).
			Where("mail = ?", mail.String()).
			Limit(1).
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", core.ErrMemberNotFound, mail)
			}
			return err
		}
		if _, err := tx.NewDelete().
			Model((*memberRecord)(nil)).
			Where("mail = ?", mail.String()).
			Exec(ctx); err != nil {
			return err
		}
		user, err := record.toDomain()
		if err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		return core.User{}, err
	}
	return deleted, nil
}
