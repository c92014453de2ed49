package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hack4change/moncton/internal/database"
	"github.com/hack4change/moncton/internal/listing"
)

const (
	defaultListLimit = 15
	maxListLimit     = 100
)

const profileColumns = `
		p.id, p.email, p.first_name, p.last_name, p.avatar_url, p.role, p.rsvp_status,
		p.dietary_restrictions, p.tshirt_size, p.registration_notes,
		p.created_at, p.updated_at, t.name`

const profileFrom = `
		FROM profiles p
		LEFT JOIN team_members tm ON tm.user_id = p.id
		LEFT JOIN teams t ON t.id = tm.team_id`

// sortColumns is the allow-list of sortable API fields.
var sortColumns = map[string]string{
	"id":        "p.id",
	"email":     "p.email",
	"firstName": "p.first_name",
	"lastName":  "p.last_name",
	"createdAt": "p.created_at",
}

// searchColumns is the allow-list of substring-filterable API fields.
var searchColumns = map[string]string{
	"firstName": "p.first_name",
	"lastName":  "p.last_name",
	"email":     "p.email",
	"team":      "t.name",
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a profile. Profiles are normally provisioned by the auth
// provider; this is used for seeding and tests.
func (r *PostgresRepository) Create(ctx context.Context, p *Profile) error {
	if p.Role == "" {
		p.Role = RoleUser
	}
	if p.RSVPStatus == "" {
		p.RSVPStatus = RSVPPending
	}

	query := `
		INSERT INTO profiles (id, email, first_name, last_name, role, rsvp_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Email, p.FirstName, p.LastName, p.Role, p.RSVPStatus,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

// GetByID retrieves a single profile with its team name.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	query := `SELECT` + profileColumns + profileFrom + `
		WHERE p.id = $1`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// Update modifies the set fields of a profile and returns the updated row.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Profile, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	set := func(col string, v *string) {
		if v == nil {
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, *v)
		argIdx++
	}
	set("first_name", fields.FirstName)
	set("last_name", fields.LastName)
	set("avatar_url", fields.AvatarURL)
	set("dietary_restrictions", fields.DietaryRestrictions)
	set("tshirt_size", fields.TShirtSize)
	set("registration_notes", fields.RegistrationNotes)
	set("role", fields.Role)
	set("rsvp_status", fields.RSVPStatus)

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argIdx)

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if database.IsRaisedWith(err, FormRequiredMarker) {
			return nil, ErrFormRequired
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdateRSVP sets the RSVP status of a profile. A rejection raised by the
// store's form-completion trigger is reported as ErrFormRequired.
func (r *PostgresRepository) UpdateRSVP(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE profiles
		SET rsvp_status = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		if database.IsRaisedWith(err, FormRequiredMarker) {
			return ErrFormRequired
		}
		return fmt.Errorf("updating rsvp status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// List retrieves a paginated, filtered, sorted page of profiles.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	filter.Normalize(defaultListLimit, maxListLimit)

	whereClause, args := buildWhere(filter)
	argIdx := len(args) + 1

	countQuery := `SELECT COUNT(*)` + profileFrom + whereClause
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting profiles: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s %s %s
		ORDER BY %s, p.id
		LIMIT $%d OFFSET $%d`,
		profileColumns, profileFrom, whereClause,
		listing.OrderBy(sortColumns, filter.SortField, filter.SortOrder, "p.created_at"),
		argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset())

	profiles, err := r.query(ctx, dataQuery, args...)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Profiles: profiles,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}, nil
}

// ListAll retrieves every profile matching the filter, ignoring pagination.
func (r *PostgresRepository) ListAll(ctx context.Context, filter ListFilter) ([]Profile, error) {
	whereClause, args := buildWhere(filter)

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s, p.id`,
		profileColumns, profileFrom, whereClause,
		listing.OrderBy(sortColumns, filter.SortField, filter.SortOrder, "p.created_at"))

	return r.query(ctx, query, args...)
}

// Delete removes the user's auth account, when the store has an auth schema,
// and the profile in one transaction. Memberships and form submissions
// cascade from the profile.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		var hasAuthUsers bool
		if err := tx.QueryRow(ctx, `SELECT to_regclass('auth.users') IS NOT NULL`).Scan(&hasAuthUsers); err != nil {
			return fmt.Errorf("checking for auth accounts table: %w", err)
		}

		var accounts int64
		if hasAuthUsers {
			result, err := tx.Exec(ctx, `DELETE FROM auth.users WHERE id = $1`, id)
			if err != nil {
				return fmt.Errorf("deleting auth account: %w", err)
			}
			accounts = result.RowsAffected()
		}

		result, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting profile: %w", err)
		}
		if accounts == 0 && result.RowsAffected() == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
}

func buildWhere(filter ListFilter) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	if len(filter.Roles) > 0 {
		conditions = append(conditions, fmt.Sprintf("p.role = ANY($%d)", argIdx))
		args = append(args, filter.Roles)
		argIdx++
	}
	if len(filter.RSVPStatuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("p.rsvp_status = ANY($%d)", argIdx))
		args = append(args, filter.RSVPStatuses)
		argIdx++
	}
	if filter.SearchValue != "" {
		col, ok := searchColumns[filter.SearchField]
		if !ok {
			col = searchColumns["email"]
		}
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", col, argIdx))
		args = append(args, listing.ContainsPattern(filter.SearchValue))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profile rows: %w", err)
	}

	if profiles == nil {
		profiles = []Profile{}
	}
	return profiles, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.AvatarURL, &p.Role, &p.RSVPStatus,
		&p.DietaryRestrictions, &p.TShirtSize, &p.RegistrationNotes,
		&p.CreatedAt, &p.UpdatedAt, &p.TeamName,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
