package taskmate

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens is the token ledger: an append-and-flag store. Records are flipped
// to expired+revoked, never deleted, so audit history survives revocation.
type Tokens interface {
	repository.Repository[*Token]

	Record(ctx context.Context, user *User, tokenString string) (*Token, error)
	RecordTx(ctx context.Context, tx bun.IDB, user *User, tokenString string) (*Token, error)
	FindAllForUser(ctx context.Context, userID uuid.UUID) ([]*Token, error)
	FindAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*Token, error)
	HasLiveMatch(ctx context.Context, userID uuid.UUID, tokenString string) (bool, error)
	InvalidateAllForUser(ctx context.Context, userID uuid.UUID) error
	InvalidateAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
	InvalidateEverything(ctx context.Context) error
}

type tokens struct {
	repository.Repository[*Token]
	db *bun.DB
}

var (
	_ Tokens                        = (*tokens)(nil)
	_ repository.Repository[*Token] = (*tokens)(nil)
)

func NewTokensRepository(db *bun.DB) Tokens {
	repo := repository.NewRepository[*Token](db, repository.ModelHandlers[*Token]{
		NewRecord: func() *Token { return &Token{} },
		GetID: func(t *Token) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Token, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &tokens{
		Repository: repo,
		db:         db,
	}
}

func (a *tokens) Record(ctx context.Context, user *User, tokenString string) (*Token, error) {
	return a.RecordTx(ctx, a.db, user, tokenString)
}

func (a *tokens) RecordTx(ctx context.Context, tx bun.IDB, user *User, tokenString string) (*Token, error) {
	record := &Token{
		ID:      uuid.New(),
		UserID:  user.ID,
		Token:   tokenString,
		Expired: false,
		Revoked: false,
	}
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *tokens) FindAllForUser(ctx context.Context, userID uuid.UUID) ([]*Token, error) {
	return a.FindAllForUserTx(ctx, a.db, userID)
}

func (a *tokens) FindAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*Token, error) {
	var records []*Token
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// HasLiveMatch reports whether the presented token string exactly matches a
// record for the identity that is neither expired nor revoked.
func (a *tokens) HasLiveMatch(ctx context.Context, userID uuid.UUID, tokenString string) (bool, error) {
	records, err := a.FindAllForUser(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, record := range records {
		if record.IsLive() && record.Token == tokenString {
			return true, nil
		}
	}

	return false, nil
}

func (a *tokens) InvalidateAllForUser(ctx context.Context, userID uuid.UUID) error {
	return a.InvalidateAllForUserTx(ctx, a.db, userID)
}

// InvalidateAllForUserTx flags every record of the identity in a single
// UPDATE so login's sweep-then-record sequence serializes per identity
// inside the caller's transaction.
func (a *tokens) InvalidateAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewRaw(`
		UPDATE "tokens" AS "tkn"
		SET
			"expired" = TRUE,
			"revoked" = TRUE
		WHERE
			("tkn".user_id = ?);
	`, userID).Exec(ctx)

	return err
}

// InvalidateEverything flags the whole ledger. Runs once at process start to
// clear stale sessions across restarts.
func (a *tokens) InvalidateEverything(ctx context.Context) error {
	_, err := a.db.NewRaw(`
		UPDATE "tokens" AS "tkn"
		SET
			"expired" = TRUE,
			"revoked" = TRUE
		WHERE
			"tkn"."expired" = FALSE OR "tkn"."revoked" = FALSE;
	`).Exec(ctx)

	return err
}
