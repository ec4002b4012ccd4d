package repositories

import (
	"database/sql"
	"errors"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"

	"github.com/go-sql-driver/mysql"
)

type UserRepo struct {
	DB *sql.DB
}

func (r UserRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const userColumns = `id, name, username, email, COALESCE(phone, ''),
	password_hash, role, COALESCE(route_id, 0), COALESCE(is_active, 0)`

// FindByLogin matches either email or username.
func (r UserRepo) FindByLogin(login string) (models.User, string, error) {
	var (
		u    models.User
		hash string
	)
	err := r.db().QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE email = ? OR username = ?
	`, login, login).Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone,
		&hash, &u.Role, &u.RouteID, &u.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return u, "", domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return u, "", domain.InternalError{Err: err}
	}
	return u, hash, nil
}

func (r UserRepo) GetByID(id int64) (models.User, error) {
	var (
		u    models.User
		hash string
	)
	err := r.db().QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE id = ?
	`, id).Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone,
		&hash, &u.Role, &u.RouteID, &u.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return u, domain.InternalError{Err: err}
	}
	return u, nil
}

// Insert stores a new account. routeID 0 is persisted as NULL. The
// unique keys on email and username surface as a ConflictError.
func (r UserRepo) Insert(u models.User, passwordHash string) (int64, error) {
	var routeID any
	if u.RouteID > 0 {
		routeID = u.RouteID
	}
	res, err := r.db().Exec(`
		INSERT INTO users (name, username, email, phone, password_hash, role, route_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, NOW(), NOW())
	`, u.Name, u.Username, u.Email, u.Phone, passwordHash, u.Role, routeID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return 0, domain.ConflictError{Resource: "user", Msg: "email or username already registered"}
		}
		return 0, domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return id, nil
}
