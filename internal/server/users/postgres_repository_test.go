package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/voxkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertUserQ  = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*email,\s*password_hash,\s*created_at,\s*is_premium,\s*credits\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)$`
	selectByIDQ  = `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash,\s*created_at,\s*is_premium,\s*credits\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	selectByMail = `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*\$1$`
	lockByIDQ    = `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE$`
	updateUserQ  = `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*\$2,\s*email\s*=\s*\$3,\s*is_premium\s*=\s*\$4,\s*credits\s*=\s*\$5\s+WHERE\s+id\s*=\s*\$1$`
	deleteUserQ  = `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
)

var userCols = []string{"id", "name", "email", "password_hash", "created_at", "is_premium", "credits"}

func newPgRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func sampleUser() *User {
	return &User{
		ID:           "u-1",
		Name:         "Ada",
		Email:        "Ada@Example.com",
		PasswordHash: []byte("hash"),
		CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Credits:      3,
	}
}

func sampleRow(u *User) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.IsPremium, u.Credits)
}

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(insertUserQ).
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.IsPremium, u.Credits).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got == u || got.ID != "u-1" || got.Credits != 3 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_UniqueViolationIsEmailTaken(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)

	mock.ExpectExec(insertUserQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), sampleUser())
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)

	mock.ExpectExec(insertUserQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), sampleUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)
	u := sampleUser()

	mock.ExpectQuery(selectByIDQ).WithArgs("u-1").WillReturnRows(sampleRow(u))

	got, err := repo.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Email != u.Email || !got.CreatedAt.Equal(u.CreatedAt) || string(got.PasswordHash) != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)

	mock.ExpectQuery(selectByIDQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestPostgresGetByEmail_NormalizesArgument(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)
	u := sampleUser()

	mock.ExpectQuery(selectByMail).WithArgs("ada@example.com").WillReturnRows(sampleRow(u))

	got, err := repo.GetByEmail(context.Background(), "  ADA@example.COM ")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestPostgresGetByEmail_DBError(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)

	mock.ExpectQuery(selectByMail).WillReturnError(errors.New("db err"))

	_, err := repo.GetByEmail(context.Background(), "ada@example.com")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresUpdate_Commits(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)
	u := sampleUser()

	mock.ExpectBegin()
	mock.ExpectQuery(lockByIDQ).WithArgs("u-1").WillReturnRows(sampleRow(u))
	mock.ExpectExec(updateUserQ).
		WithArgs("u-1", u.Name, u.Email, false, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Update(context.Background(), "u-1", func(u *User) error {
		u.Credits--
		return nil
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.Credits != 2 {
		t.Fatalf("credits = %d, want 2", got.Credits)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdate_CallbackErrorRollsBack(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockByIDQ).WithArgs("u-1").WillReturnRows(sampleRow(sampleUser()))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "u-1", func(u *User) error {
		return ErrInsufficientCredits
	})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("want ErrInsufficientCredits, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdate_MissingUser(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockByIDQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	called := false
	_, err := repo.Update(context.Background(), "ghost", func(u *User) error {
		called = true
		return nil
	})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if called {
		t.Fatal("callback ran for a missing user")
	}
}

func TestPostgresDelete(t *testing.T) {
	tests := []struct {
		name    string
		result  driver.Result
		execErr error
		want    error
	}{
		{name: "deleted", result: sqlmock.NewResult(0, 1)},
		{name: "missing", result: sqlmock.NewResult(0, 0), want: common.ErrorNotFound},
		{name: "db error", execErr: errors.New("db err")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newPgRepoWithMock(t)

			exp := mock.ExpectExec(deleteUserQ).WithArgs("u-1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Delete(context.Background(), "u-1")
			switch {
			case tt.execErr != nil:
				if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
					t.Fatalf("expected wrapped db error, got %v", err)
				}
			case tt.want != nil:
				if !errors.Is(err, tt.want) {
					t.Fatalf("want %v, got %v", tt.want, err)
				}
			default:
				if err != nil {
					t.Fatalf("Delete error: %v", err)
				}
			}
		})
	}
}

func TestOpenPostgres_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := OpenPostgres(ctx, "postgres://vox@127.0.0.1:1/vox?sslmode=disable&connect_timeout=1")
	if err == nil {
		_ = db.Close()
		t.Fatal("expected error for unreachable database")
	}
}
