package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, phone, city, country, role, otp_hash, otp_expires_at, is_verified, created_at, updated_at`

// PostgresRepository is the pgx-backed Repository implementation.
type PostgresRepository struct {
	DB *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := user.Role
	if role == "" {
		role = RoleUser
	}

	var otpHash *string
	var otpExpires *time.Time
	if user.OTP != nil {
		otpHash = &user.OTP.Hash
		otpExpires = &user.OTP.ExpiresAt
	}

	row := r.DB.QueryRow(ctx, `
		INSERT INTO users
		(id, name, email, password_hash, phone, city, country, role, otp_hash, otp_expires_at, is_verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+userColumns,
		id, user.Name, strings.ToLower(user.Email), user.PasswordHash,
		user.Phone, user.City, user.Country, role, otpHash, otpExpires, user.IsVerified)

	created, err := scanUser(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return created, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	return findResult(scanUser(row))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(email))
	return findResult(scanUser(row))
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name=$1`, name)
	return findResult(scanUser(row))
}

func (r *PostgresRepository) SaveOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE users
		SET otp_hash=$1, otp_expires_at=$2, updated_at=NOW()
		WHERE id=$3
	`, otpHash, expiresAt, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ConsumeOTP(ctx context.Context, userID, otpHash string) (bool, error) {
	// Conditional update keyed on the stored digest: under concurrent verify
	// attempts at most one caller observes a row change.
	tag, err := r.DB.Exec(ctx, `
		UPDATE users
		SET is_verified=TRUE, otp_hash=NULL, otp_expires_at=NULL, updated_at=NOW()
		WHERE id=$1 AND otp_hash=$2 AND is_verified=FALSE
	`, userID, otpHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) EnsureAdmin(ctx context.Context, admin *User) (bool, error) {
	var existing string
	err := r.DB.QueryRow(ctx, `SELECT email FROM users WHERE role=$1 LIMIT 1`, RoleAdmin).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	admin.Role = RoleAdmin
	admin.IsVerified = true
	if _, err := r.Create(ctx, admin); err != nil {
		// A concurrent bootstrap may have raced us past the check; the partial
		// unique index on role='admin' makes the loser harmless.
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func findResult(user *User, err error) (*User, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var phone, city, country *string
	var otpHash *string
	var otpExpires *time.Time

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&phone, &city, &country, &u.Role,
		&otpHash, &otpExpires, &u.IsVerified,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if phone != nil {
		u.Phone = *phone
	}
	if city != nil {
		u.City = *city
	}
	if country != nil {
		u.Country = *country
	}
	if otpHash != nil && otpExpires != nil {
		u.OTP = &PendingOTP{Hash: *otpHash, ExpiresAt: *otpExpires}
	}

	return &u, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrEmailTaken
		case "users_name_key":
			return ErrNameTaken
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrNameTaken) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
