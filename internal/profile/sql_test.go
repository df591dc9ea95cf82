package profile

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var recordCols = []string{"id", "full_name", "city", "role", "phone", "avatar_url", "departments", "other_emails", "created_at", "updated_at"}

func newSQL(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(sqlx.NewDb(db, "pgx")), mock
}

func TestSQLStore_Get(t *testing.T) {
	s, mock := newSQL(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(selectRecord + ` WHERE id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("u1", "Ana", "Natal", "pilot", nil, nil, "{ops,eng}", nil, now, now))

	got, err := s.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if Str(got.City) != "Natal" || len(got.Departments) != 2 || got.OtherEmails != nil {
		t.Fatalf("unexpected record: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLStore_GetMissing(t *testing.T) {
	s, mock := newSQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectRecord + ` WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(recordCols))

	if _, err := s.Get(context.Background(), "ghost"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLStore_Update(t *testing.T) {
	s, mock := newSQL(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		`UPDATE profiles SET city = $1, full_name = $2, updated_at = now() WHERE id = $3` + returningRecord,
	)).
		WithArgs("Recife", "Ana Silva", "u1").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("u1", "Ana Silva", "Recife", "pilot", nil, nil, nil, nil, now, now))

	got, err := s.Update(context.Background(), "u1", Changes{Name: Ptr("Ana Silva"), City: Ptr("Recife")})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if Str(got.FullName) != "Ana Silva" {
		t.Fatalf("full_name = %q", Str(got.FullName))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLStore_Upsert(t *testing.T) {
	s, mock := newSQL(t)
	deps := StringList{"ops", "eng"}
	none := StringList{}

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO profiles (id, city, departments, other_emails, role) VALUES ($1, $2, $3, $4, $5)` +
			` ON CONFLICT (id) DO UPDATE SET city = EXCLUDED.city, departments = EXCLUDED.departments,` +
			` other_emails = EXCLUDED.other_emails, role = EXCLUDED.role, updated_at = now()`,
	)).
		WithArgs("u1", "Natal", "{ops,eng}", nil, "pilot").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Upsert(context.Background(), "u1", Changes{
		City: Ptr("Natal"), Role: Ptr("pilot"), Departments: &deps, OtherEmails: &none,
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLStore_List(t *testing.T) {
	s, mock := newSQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, full_name, avatar_url FROM profiles ORDER BY full_name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "avatar_url"}).
			AddRow("a", "Ana", nil).
			AddRow("b", nil, "https://img/b.png"))

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].Label() != "Ana" || got[1].Label() != "b" || got[1].Email != nil {
		t.Fatalf("unexpected listing: %+v", got)
	}
}
