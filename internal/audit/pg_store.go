package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// DBTX is the subset of pgxpool.Pool the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgStore writes events to audit_logs and serves the admin listing.
type PgStore struct {
	db DBTX
}

func NewPgStore(db DBTX) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Write(ctx context.Context, ev Event) error {
	var details []byte
	if len(ev.Details) > 0 {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = b
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ev.ID, ev.UserID, ev.Action, ev.ResourceType, ev.ResourceID, details,
		nullableString(ev.IPAddress), nullableString(ev.UserAgent), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

type Filter struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// List returns events newest first.
func (s *PgStore) List(ctx context.Context, f Filter) ([]Event, error) {
	query, args, err := listQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build audit list query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	result := make([]Event, 0)
	for rows.Next() {
		var (
			ev      Event
			details []byte
			ip, ua  *string
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Action, &ev.ResourceType, &ev.ResourceID,
			&details, &ip, &ua, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &ev.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		if ip != nil {
			ev.IPAddress = *ip
		}
		if ua != nil {
			ev.UserAgent = *ua
		}
		result = append(result, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func listQuery(f Filter) (string, []any, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	ds := goqu.Dialect("postgres").
		From("audit_logs").
		Select("id", "user_id", "action", "resource_type", "resource_id", "details", "ip_address", "user_agent", "created_at").
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true)

	if f.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(f.UserID.String()))
	}
	if f.Action != "" {
		ds = ds.Where(goqu.C("action").Eq(f.Action))
	}
	if f.ResourceType != "" {
		ds = ds.Where(goqu.C("resource_type").Eq(f.ResourceType))
	}
	if f.From != nil {
		ds = ds.Where(goqu.C("created_at").Gte(*f.From))
	}
	if f.To != nil {
		ds = ds.Where(goqu.C("created_at").Lte(*f.To))
	}

	return ds.ToSQL()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
