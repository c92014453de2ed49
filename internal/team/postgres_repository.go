package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hack4change/moncton/internal/database"
	"github.com/hack4change/moncton/internal/listing"
)

const (
	defaultListLimit = 15
	maxListLimit     = 100

	membershipConstraint = "team_members_user_id_key"
)

const teamColumns = `
		t.id, t.name, t.description, t.max_members, t.created_by, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id),
		c.first_name, c.last_name, c.email`

const teamFrom = `
		FROM teams t
		LEFT JOIN profiles c ON c.id = t.created_by`

var sortColumns = map[string]string{
	"id":        "t.id",
	"name":      "t.name",
	"createdAt": "t.created_at",
}

var searchColumns = map[string]string{
	"name":        "t.name",
	"description": "t.description",
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// CreateWithLeader inserts a team and makes leaderID its leader.
func (r *PostgresRepository) CreateWithLeader(ctx context.Context, t *Team, leaderID uuid.UUID) error {
	if t.MaxMembers == 0 {
		t.MaxMembers = DefaultMaxMembers
	}

	return database.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := ensureNoMembership(ctx, tx, leaderID); err != nil {
			return err
		}

		query := `
			INSERT INTO teams (name, description, max_members, created_by)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`

		err := tx.QueryRow(ctx, query, t.Name, t.Description, t.MaxMembers, leaderID).
			Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting team: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, $3)`,
			t.ID, leaderID, RoleLeader)
		if err != nil {
			if database.IsUniqueViolation(err, membershipConstraint) {
				return ErrAlreadyInTeam
			}
			return fmt.Errorf("inserting leader membership: %w", err)
		}

		t.CreatedBy = &leaderID
		t.MemberCount = 1
		return nil
	})
}

// Join locks the team row, checks capacity and inserts the membership.
func (r *PostgresRepository) Join(ctx context.Context, teamID, userID uuid.UUID) (*Member, error) {
	m := &Member{TeamID: teamID, UserID: userID, Role: RoleMember}

	err := database.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		var maxMembers int
		err := tx.QueryRow(ctx, `SELECT max_members FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&maxMembers)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("locking team: %w", err)
		}

		if err := ensureNoMembership(ctx, tx, userID); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM team_members WHERE team_id = $1`, teamID).Scan(&count); err != nil {
			return fmt.Errorf("counting team members: %w", err)
		}
		if count >= maxMembers {
			return ErrTeamFull
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, $3) RETURNING id, joined_at`,
			teamID, userID, RoleMember,
		).Scan(&m.ID, &m.JoinedAt)
		if err != nil {
			if database.IsUniqueViolation(err, membershipConstraint) {
				return ErrAlreadyInTeam
			}
			if database.IsForeignKeyViolation(err) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("inserting membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Leave deletes the user's membership. Zero rows affected is not an error.
func (r *PostgresRepository) Leave(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var teamID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM team_members WHERE user_id = $1 RETURNING team_id`, userID).Scan(&teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("deleting membership: %w", err)
	}
	return teamID, nil
}

// GetUserTeam returns the user's team with its roster, or ErrNotInTeam.
func (r *PostgresRepository) GetUserTeam(ctx context.Context, userID uuid.UUID) (*TeamWithMembers, error) {
	var teamID uuid.UUID
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT team_id, role FROM team_members WHERE user_id = $1`, userID).Scan(&teamID, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotInTeam
		}
		return nil, fmt.Errorf("querying membership: %w", err)
	}

	t, err := r.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT m.id, m.team_id, m.user_id, m.role, m.joined_at, p.first_name, p.last_name, p.email
		FROM team_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at ASC`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt, &m.FirstName, &m.LastName, &m.Email); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}

	return &TeamWithMembers{Team: *t, Members: members, UserRole: role}, nil
}

// Search returns up to limit teams whose name contains query
// (case-insensitive), in store order. An empty query matches every team.
func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) ([]Team, error) {
	sql := `SELECT` + teamColumns + teamFrom
	var args []any
	if query != "" {
		sql += ` WHERE t.name ILIKE $1`
		args = append(args, listing.ContainsPattern(query))
	}
	sql += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	return r.query(ctx, sql, args...)
}

// GetByID retrieves a single team by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	query := `SELECT` + teamColumns + teamFrom + `
		WHERE t.id = $1`

	t, err := scanTeam(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team: %w", err)
	}
	return t, nil
}

// List retrieves a paginated, filtered, sorted page of teams.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	filter.Normalize(defaultListLimit, maxListLimit)

	whereClause, args := buildWhere(filter)
	argIdx := len(args) + 1

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+teamFrom+whereClause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting teams: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s %s %s
		ORDER BY %s, t.id
		LIMIT $%d OFFSET $%d`,
		teamColumns, teamFrom, whereClause,
		listing.OrderBy(sortColumns, filter.SortField, filter.SortOrder, "t.created_at"),
		argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset())

	teams, err := r.query(ctx, dataQuery, args...)
	if err != nil {
		return nil, err
	}

	return &ListResult{Teams: teams, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ListAll retrieves every team matching the filter, ignoring pagination.
func (r *PostgresRepository) ListAll(ctx context.Context, filter ListFilter) ([]Team, error) {
	whereClause, args := buildWhere(filter)
	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s, t.id`,
		teamColumns, teamFrom, whereClause,
		listing.OrderBy(sortColumns, filter.SortField, filter.SortOrder, "t.created_at"))

	return r.query(ctx, query, args...)
}

// Delete removes a team by its UUID. Memberships cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func ensureNoMembership(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM team_members WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if exists {
		return ErrAlreadyInTeam
	}
	return nil
}

func buildWhere(filter ListFilter) (string, []any) {
	if filter.SearchValue == "" {
		return "", nil
	}
	col, ok := searchColumns[filter.SearchField]
	if !ok {
		col = searchColumns["name"]
	}
	return fmt.Sprintf(" WHERE %s ILIKE $1", col), []any{listing.ContainsPattern(filter.SearchValue)}
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Team, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	if teams == nil {
		teams = []Team{}
	}
	return teams, nil
}

func scanTeam(row pgx.Row) (*Team, error) {
	var t Team
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.MaxMembers, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		&t.MemberCount, &t.CreatorFirstName, &t.CreatorLastName, &t.CreatorEmail,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
