package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-service/internal/apperr"
	"order-service/internal/auth"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// InsertUser hashes the password and stores the new user with the USER role.
func (c *Conf) InsertUser(ctx context.Context, newUser NewUser) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(newUser.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, err, "hashing password")
	}

	user := User{
		ID:        uuid.NewString(),
		Name:      newUser.Name,
		Email:     newUser.Email,
		Roles:     []string{auth.RoleUser},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	// roles stored as a comma separated list; database/sql has no native
	// scanner for text[]
	_, err = c.db.ExecContext(ctx, query, user.ID, user.Name, user.Email,
		string(hash), strings.Join(user.Roles, ","), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, apperr.New(apperr.KindConflict, "email %s is already registered", user.Email)
		}
		return User{}, apperr.Wrap(apperr.KindInternal, err, "inserting user")
	}
	return user, nil
}

// Authenticate checks the email/password pair and returns the stored user.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	query := `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user User
	var roles string
	err := c.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Name,
		&user.Email, &user.PasswordHash, &roles, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperr.New(apperr.KindForbidden, "invalid credentials")
		}
		return User{}, apperr.Wrap(apperr.KindInternal, err, "querying user by email")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, apperr.New(apperr.KindForbidden, "invalid credentials")
	}
	user.Roles = strings.Split(roles, ",")
	return user, nil
}

// GetNameByID returns the display name for an existing user id.
func (c *Conf) GetNameByID(ctx context.Context, userID string) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = $1`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.New(apperr.KindNotFound, "user %s not found", userID)
		}
		return "", apperr.Wrap(apperr.KindInternal, err, "querying user name")
	}
	return name, nil
}
