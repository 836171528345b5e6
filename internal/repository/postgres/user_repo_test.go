package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

const insertAccountSQL = `INSERT INTO accounts \(id, email, pwd_hash, kdf_salt, created_at\) VALUES \(\$1, \$2, \$3, \$4, \$5\)`
const selectAccountSQL = `SELECT id, email, pwd_hash, kdf_salt, created_at FROM accounts WHERE email=\$1`

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	a := &model.Account{
		ID:        uuid.Must(uuid.NewV4()),
		Email:     "a@x.com",
		PwdHash:   "$argon2id$...",
		KDFSalt:   []byte("salt"),
		CreatedAt: time.Now(),
	}

	mock.ExpectExec(insertAccountSQL).
		WithArgs(a.ID, a.Email, a.PwdHash, a.KDFSalt, a.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, a))

	mock.ExpectExec(insertAccountSQL).
		WithArgs(a.ID, a.Email, a.PwdHash, a.KDFSalt, a.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, a), errs.ErrAlreadyExists)

	mock.ExpectExec(insertAccountSQL).
		WithArgs(a.ID, a.Email, a.PwdHash, a.KDFSalt, a.CreatedAt).
		WillReturnError(errors.New("conn reset"))
	err := r.Create(ctx, a)
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_NilSaltStoredEmpty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	a := &model.Account{
		ID:        uuid.Must(uuid.NewV4()),
		Email:     "legacy@x.com",
		PwdHash:   "$2a$10$...",
		CreatedAt: time.Now(),
	}

	mock.ExpectExec(insertAccountSQL).
		WithArgs(a.ID, a.Email, a.PwdHash, []byte{}, a.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, NewUserRepo(db).Create(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	created := time.Now().UTC()

	mock.ExpectQuery(selectAccountSQL).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "pwd_hash", "kdf_salt", "created_at"}).
			AddRow(id, "a@x.com", "h", []byte("s"), created))
	a, err := r.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, id, a.ID)
	require.Equal(t, "h", a.PwdHash)
	require.Equal(t, []byte("s"), a.KDFSalt)

	mock.ExpectQuery(selectAccountSQL).
		WithArgs("nobody@x.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(selectAccountSQL).
		WithArgs("a@x.com").
		WillReturnError(context.Canceled)
	_, err = r.GetByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	db := &DB{Pool: mock}

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	require.Error(t, db.Ping(context.Background()))
}
