package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticket-booking-engine/internal/model"
	apperrors "ticket-booking-engine/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	FindByID(ctx context.Context, id int) (*model.Event, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error)
	ArchiveOld(ctx context.Context, before time.Time, limit int) (int64, error)

	// Transaction methods
	FindByIDTx(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error)
	// ReserveTickets increments tickets_sold by quantity only while the
	// event is active and the result stays within total_tickets. Zero rows
	// affected means the precondition failed.
	ReserveTickets(ctx context.Context, tx pgx.Tx, id int, quantity int) error
	// ReleaseTickets decrements tickets_sold by quantity, never below zero.
	ReleaseTickets(ctx context.Context, tx pgx.Tx, id int, quantity int) error
}

const eventColumns = `id, event_id, organizer_id, name, description, status, starts_at,
		base_price_cents, total_tickets, tickets_sold, archived, created_at, updated_at`

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.EventID,
		&event.OrganizerID,
		&event.Name,
		&event.Description,
		&event.Status,
		&event.StartsAt,
		&event.BasePriceCents,
		&event.TotalTickets,
		&event.TicketsSold,
		&event.Archived,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := fmt.Sprintf(`
		INSERT INTO events (event_id, organizer_id, name, description, status, starts_at,
			base_price_cents, total_tickets)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s
	`, eventColumns)

	created, err := scanEvent(r.pool.QueryRow(ctx, query,
		event.EventID, event.OrganizerID, event.Name, event.Description,
		event.Status, event.StartsAt, event.BasePriceCents, event.TotalTickets,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE archived = FALSE
		ORDER BY starts_at ASC
	`, eventColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE id = $1
	`, eventColumns)

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE event_id = $1
	`, eventColumns)

	event, err := scanEvent(r.pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) FindByIDTx(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE id = $1
	`, eventColumns)

	event, err := scanEvent(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	if params.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *params.Name)
		argPos++
	}
	if params.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *params.Description)
		argPos++
	}
	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, apperrors.ErrInvalidInput
		}
		sets = append(sets, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.StartsAt != nil {
		sets = append(sets, fmt.Sprintf("starts_at = $%d", argPos))
		args = append(args, *params.StartsAt)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, eventColumns)

	event, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) ReserveTickets(ctx context.Context, tx pgx.Tx, id int, quantity int) error {
	query := `
		UPDATE events
		SET tickets_sold = tickets_sold + $1, updated_at = $2
		WHERE id = $3
		  AND status = 'active'
		  AND tickets_sold + $1 <= total_tickets
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrCapacityExceeded
	}

	return nil
}

func (r *EventRepositoryImpl) ReleaseTickets(ctx context.Context, tx pgx.Tx, id int, quantity int) error {
	query := `
		UPDATE events
		SET tickets_sold = tickets_sold - $1, updated_at = $2
		WHERE id = $3 AND tickets_sold >= $1
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}

func (r *EventRepositoryImpl) ArchiveOld(ctx context.Context, before time.Time, limit int) (int64, error) {
	query := `
		UPDATE events
		SET archived = TRUE, updated_at = $1
		WHERE id IN (
			SELECT id FROM events
			WHERE archived = FALSE
			  AND status IN ('cancelled', 'completed')
			  AND updated_at < $2
			LIMIT $3
		)
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), before, limit)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
