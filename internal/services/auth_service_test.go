package services

import (
	"testing"
	"time"

	"ferryops/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	mock.ExpectQuery("FROM users\\s+WHERE email = \\? OR username = \\?").
		WithArgs("checker@example.com", "checker@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "username", "email", "phone",
			"password_hash", "role", "route_id", "is_active",
		}).AddRow(4, "Checker", "checker", "checker@example.com", "",
			string(hash), domain.RoleTicketChecker, 3, 1))

	svc := AuthService{DB: db, Secret: []byte("jwt-secret")}
	result, err := svc.Login(LoginInput{Login: "checker@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a signed token")
	}

	ctx, err := svc.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	if ctx.UserID != 4 || ctx.Role != domain.RoleTicketChecker || ctx.RouteID != 3 {
		t.Fatalf("unexpected context %+v", ctx)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	mock.ExpectQuery("FROM users\\s+WHERE email = \\? OR username = \\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "username", "email", "phone",
			"password_hash", "role", "route_id", "is_active",
		}).AddRow(4, "Checker", "checker", "checker@example.com", "",
			string(hash), domain.RoleTicketChecker, 3, 1))

	svc := AuthService{DB: db, Secret: []byte("jwt-secret")}
	if _, err := svc.Login(LoginInput{Login: "checker@example.com", Password: "wrong"}); !domain.IsValidation(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	issuer := AuthService{Secret: []byte("secret-a"), TokenTTL: time.Hour}
	verifier := AuthService{Secret: []byte("secret-b")}

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	issuer.DB = db

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw-enough"), bcrypt.MinCost)
	mock.ExpectQuery("FROM users\\s+WHERE email = \\? OR username = \\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "username", "email", "phone",
			"password_hash", "role", "route_id", "is_active",
		}).AddRow(4, "Checker", "checker", "checker@example.com", "",
			string(hash), domain.RoleTicketChecker, 0, 1))

	result, err := issuer.Login(LoginInput{Login: "checker", Password: "pw-enough"})
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if _, err := verifier.ParseToken(result.Token); !domain.IsValidation(err) {
		t.Fatalf("expected rejection with foreign secret, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := AuthService{}

	if _, err := svc.Register(RegisterInput{Username: "u", Email: "a@b.c", Password: "longenough"}); !domain.IsValidation(err) {
		t.Fatalf("expected name validation, got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Name: "N", Username: "u", Email: "not-an-email", Password: "longenough"}); !domain.IsValidation(err) {
		t.Fatalf("expected email validation, got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Name: "N", Username: "u", Email: "a@b.c", Password: "short"}); !domain.IsValidation(err) {
		t.Fatalf("expected password validation, got %v", err)
	}
}
