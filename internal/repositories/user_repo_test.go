package repositories

import (
	"testing"

	"ferryops/internal/domain"
	"ferryops/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestInsertUserDuplicateKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	repo := UserRepo{DB: db}
	_, err = repo.Insert(models.User{
		Name: "Dup", Username: "dup", Email: "dup@example.com", Role: domain.RolePortalUser,
	}, "hash")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate user, got %v", err)
	}
}

func TestInsertUserNullsUnassignedRoute(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("A", "a", "a@example.com", "", "hash", domain.RolePortalUser, nil).
		WillReturnResult(sqlmock.NewResult(12, 1))

	repo := UserRepo{DB: db}
	id, err := repo.Insert(models.User{
		Name: "A", Username: "a", Email: "a@example.com", Role: domain.RolePortalUser,
	}, "hash")
	if err != nil {
		t.Fatalf("insert error: %v", err)
	}
	if id != 12 {
		t.Fatalf("id = %d, want 12", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
