// Package sessions persists the signed-in session in the local database
// so that a later run starts signed in.
package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/reportdesk/internal/dbx"
)

const prefix = "session."

const (
	keyAccessToken  = prefix + "access_token"
	keyTokenType    = prefix + "token_type"
	keyExpiresIn    = prefix + "expires_in"
	keyExpiresAt    = prefix + "expires_at"
	keyRefreshToken = prefix + "refresh_token"
	keyUser         = prefix + "user"
)

var sessionKeys = []string{keyAccessToken, keyTokenType, keyExpiresIn, keyExpiresAt, keyRefreshToken, keyUser}

// SQLiteStore keeps each session field as a metadata entry. Fields are
// read and written in one transaction. Empty fields have no entry.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.Session, error) {
	var kv map[string][]byte
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		token, err := repo.Get(ctx, keyAccessToken)
		if err != nil || len(token) == 0 {
			return err
		}
		kv, err = repo.ListPrefix(ctx, prefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	token := string(kv[keyAccessToken])
	if token == "" {
		return nil, nil
	}

	session := &models.Session{
		AccessToken:  token,
		TokenType:    string(kv[keyTokenType]),
		RefreshToken: string(kv[keyRefreshToken]),
	}
	if session.ExpiresIn, err = parseInt(kv[keyExpiresIn]); err != nil {
		return nil, fmt.Errorf("stored %s: %w", keyExpiresIn, err)
	}
	if session.ExpiresAt, err = parseInt(kv[keyExpiresAt]); err != nil {
		return nil, fmt.Errorf("stored %s: %w", keyExpiresAt, err)
	}
	if raw := kv[keyUser]; len(raw) > 0 {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("stored %s: %w", keyUser, err)
		}
		session.User = &u
	}
	return session, nil
}

func (s *SQLiteStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil {
		return s.Clear(ctx)
	}

	var user []byte
	if session.User != nil {
		var err error
		if user, err = json.Marshal(session.User); err != nil {
			return fmt.Errorf("marshal session user: %w", err)
		}
	}

	values := map[string][]byte{
		keyAccessToken:  []byte(session.AccessToken),
		keyTokenType:    []byte(session.TokenType),
		keyExpiresIn:    []byte(strconv.FormatInt(session.ExpiresIn, 10)),
		keyExpiresAt:    []byte(strconv.FormatInt(session.ExpiresAt, 10)),
		keyRefreshToken: []byte(session.RefreshToken),
		keyUser:         user,
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, k := range sessionKeys {
			v := values[k]
			if len(v) == 0 {
				if err := repo.Delete(ctx, k); err != nil {
					return err
				}
				continue
			}
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear drops every "session." entry, including keys written by older
// versions.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).DeletePrefix(ctx, prefix)
}

func parseInt(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, nil
	}
	return strconv.ParseInt(string(b), 10, 64)
}
