package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/accounts/internal/model"
)

// uniqueViolation はPostgreSQLのユニーク制約違反のSQLSTATE。
const uniqueViolation = "23505"

const userColumns = `id, first_name, last_name, email, password_hash, attributes, meta, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindAll は全ユーザーを作成日時の降順で取得する。
func (r *PostgresUserRepo) FindAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// Insert はユーザーを作成する。IDと作成日時はデータベース側で採番する。
// emailのユニークインデックス違反はErrDuplicateEmailに変換する。
func (r *PostgresUserRepo) Insert(ctx context.Context, nu *model.NewUser) (*model.User, error) {
	attributes, err := encodeBag(nu.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attributes: %w", err)
	}
	meta, err := encodeBag(nu.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meta: %w", err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (first_name, last_name, email, password_hash, attributes, meta)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		nu.FirstName, nu.LastName, nu.Email, nu.PasswordHash, attributes, meta,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// UpdateByID はnilでないフィールドのみを更新する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) UpdateByID(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET
		   first_name = COALESCE($2, first_name),
		   last_name = COALESCE($3, last_name),
		   password_hash = COALESCE($4, password_hash),
		   updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, nullable(patch.FirstName), nullable(patch.LastName), nullable(patch.Password),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteByID は指定IDのユーザーを削除する。削除対象がなければfalseを返す。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrInvalidID
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	user := &model.User{}
	var attributes, meta []byte
	if err := s.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash,
		&attributes, &meta, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if user.Attributes, err = decodeBag(attributes); err != nil {
		return nil, fmt.Errorf("failed to decode attributes: %w", err)
	}
	if user.Meta, err = decodeBag(meta); err != nil {
		return nil, fmt.Errorf("failed to decode meta: %w", err)
	}
	return user, nil
}

// encodeBag はJSONBカラムに書き込む値を返す。nilのマップはNULLとして扱う。
func encodeBag(bag map[string]any) (any, error) {
	if bag == nil {
		return nil, nil
	}
	b, err := json.Marshal(bag)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeBag(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var bag map[string]any
	if err := json.Unmarshal(raw, &bag); err != nil {
		return nil, err
	}
	return bag, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
