package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/repositories"
	"ferryops/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and validates the JWTs the API runs on. Tokens
// carry the role and assigned route so verification scoping never needs
// a user lookup per request.
type AuthService struct {
	UserRepo  repositories.UserRepo
	DB        *sql.DB
	Secret    []byte
	TokenTTL  time.Duration
	RequestID string

	Now func() time.Time
}

func (s AuthService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s AuthService) users() repositories.UserRepo {
	if s.UserRepo.DB != nil {
		return s.UserRepo
	}
	return repositories.UserRepo{DB: s.db()}
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return 24 * time.Hour
}

type LoginInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login checks the credentials and returns a signed token. Wrong login
// and wrong password are deliberately indistinguishable.
func (s AuthService) Login(in LoginInput) (LoginResult, error) {
	in.Login = strings.TrimSpace(in.Login)
	if in.Login == "" || in.Password == "" {
		return LoginResult{}, domain.ValidationError{Field: "login", Msg: "login and password are required"}
	}

	user, hash, err := s.users().FindByLogin(in.Login)
	if domain.IsNotFound(err) {
		return LoginResult{}, domain.ValidationError{Field: "login", Msg: "invalid credentials"}
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !user.IsActive {
		return LoginResult{}, domain.ValidationError{Field: "login", Msg: "invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)); err != nil {
		return LoginResult{}, domain.ValidationError{Field: "login", Msg: "invalid credentials"}
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     s.now().Add(s.ttl()).Unix(),
	}
	if user.RouteID > 0 {
		claims["route_id"] = user.RouteID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return LoginResult{}, domain.InternalError{Msg: "failed to sign token", Err: err}
	}

	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user_id=%d role=%s", user.ID, user.Role))
	return LoginResult{Token: signed, User: user}, nil
}

type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register creates a portal account. Staff accounts are provisioned
// separately and never through this path.
func (s AuthService) Register(in RegisterInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" {
		return models.User{}, domain.ValidationError{Field: "name", Msg: "is required"}
	}
	if in.Username == "" {
		return models.User{}, domain.ValidationError{Field: "username", Msg: "is required"}
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return models.User{}, domain.ValidationError{Field: "email", Msg: "must be a valid email address"}
	}
	if len(in.Password) < 8 {
		return models.User{}, domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, domain.InternalError{Msg: "failed to hash password", Err: err}
	}

	user := models.User{
		Name:     in.Name,
		Username: in.Username,
		Email:    in.Email,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     domain.RolePortalUser,
		IsActive: true,
	}
	id, err := s.users().Insert(user, string(hash))
	if err != nil {
		return models.User{}, err
	}
	user.ID = id

	utils.LogEvent(s.RequestID, "auth", "register", fmt.Sprintf("user_id=%d", id))
	return user, nil
}

// ParseToken validates a bearer token and rebuilds the request context
// embedded in its claims.
func (s AuthService) ParseToken(tokenString string) (domain.RequestContext, error) {
	var ctx domain.RequestContext

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !token.Valid {
		return ctx, domain.ValidationError{Field: "token", Msg: "invalid or expired token", Err: err}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, domain.ValidationError{Field: "token", Msg: "invalid token claims"}
	}
	if v, ok := claims["user_id"].(float64); ok {
		ctx.UserID = int64(v)
	}
	if v, ok := claims["role"].(string); ok {
		ctx.Role = v
	}
	if v, ok := claims["route_id"].(float64); ok {
		ctx.RouteID = int64(v)
	}
	if ctx.UserID == 0 || ctx.Role == "" {
		return ctx, domain.ValidationError{Field: "token", Msg: "invalid token claims"}
	}
	return ctx, nil
}
