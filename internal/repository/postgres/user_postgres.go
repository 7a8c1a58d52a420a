package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/repository"
)

const userColumns = `id::text, name, age, email, address, created_at, updated_at`

type userRepository struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a literal search text into an ILIKE substring pattern.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// whereClause renders f as SQL. Placeholders start at $1; the caller appends its own args after.
func whereClause(f repository.UserFilter) (string, []any) {
	if f.MatchAll() {
		return "", nil
	}
	return ` WHERE name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\' OR address ILIKE $1 ESCAPE '\'`,
		[]any{likePattern(f.Search)}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Age, &u.Email, &u.Address, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *userRepository) Find(ctx context.Context, f repository.UserFilter, w repository.Window) ([]model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	where, args := whereClause(f)
	n := len(args)
	// insertion order is what "store-native" means for this table
	sql := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		userColumns, where, n+1, n+2)
	args = append(args, w.Limit, w.Skip)

	rows, err := getQ(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.User, 0, w.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

func (r *userRepository) Count(ctx context.Context, f repository.UserFilter) (int64, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	where, args := whereClause(f)
	var total int64
	if err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return 0, repository.MapPgError(err)
	}
	return total, nil
}

func (r *userRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (id, name, age, email, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		uuid.NewString(), u.Name, u.Age, u.Email, u.Address,
	)
	out, err := scanUser(row)
	if err != nil {
		return model.User{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) getOne(ctx context.Context, sql string, arg any) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	u, err := scanUser(getQ(ctx, r.pool).QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, repository.MapPgError(err)
	}
	return u, nil
}

// Update relies on COALESCE so that nil patch fields keep the stored value in one statement.
func (r *userRepository) Update(ctx context.Context, id string, p model.UserPatch) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	var age *int32
	if p.Age != nil {
		if *p.Age > math.MaxInt32 {
			return model.User{}, fmt.Errorf("age %d out of range", *p.Age)
		}
		v := int32(*p.Age)
		age = &v
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE users SET
			name = COALESCE($2, name),
			age = COALESCE($3, age),
			email = COALESCE($4, email),
			address = COALESCE($5, address),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, p.Name, age, p.Email, p.Address,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, repository.MapPgError(err)
	}
	return u, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*userRepository)(nil)
