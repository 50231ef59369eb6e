package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/srgjo27/campsite_booking/internal/core/domain"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// EnsureSchema creates the booking tables when they are missing.
func (r *BookingRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply booking schema: %w", err)
	}
	return nil
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	queryHeader := `
	INSERT INTO bookings (
		id, reference_code, check_in, check_out, adults, children, infants, bring_own_tent,
		campsite_fee, tent_rental_fee, addons_fee, subtotal, taxes, total, status, created_at, updated_at
	) VALUES (
		:id, :reference_code, :check_in, :check_out, :adults, :children, :infants, :bring_own_tent,
		:campsite_fee, :tent_rental_fee, :addons_fee, :subtotal, :taxes, :total, :status, :created_at, :created_at
	)
	`

	_, err = tx.NamedExecContext(ctx, queryHeader, booking)
	if err != nil {
		if isReferenceConflict(err) {
			return ports.ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert booking header: %w", err)
	}

	if len(booking.Tents) > 0 {
		stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO booking_tents (id, booking_id, tent_type, quantity, price_per_night)
		VALUES (:id, :booking_id, :tent_type, :quantity, :price_per_night)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare tent statement: %w", err)
		}

		defer stmt.Close()

		for _, tent := range booking.Tents {
			if _, err := stmt.ExecContext(ctx, tent); err != nil {
				return fmt.Errorf("failed to insert tent %s: %w", tent.TentType, err)
			}
		}
	}

	if len(booking.AddOns) > 0 {
		stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO booking_addons (id, booking_id, addon_type, quantity, price)
		VALUES (:id, :booking_id, :addon_type, :quantity, :price)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare add-on statement: %w", err)
		}

		defer stmt.Close()

		for _, addOn := range booking.AddOns {
			if _, err := stmt.ExecContext(ctx, addOn); err != nil {
				return fmt.Errorf("failed to insert add-on %s: %w", addOn.AddOnType, err)
			}
		}
	}

	if booking.Guest != nil {
		_, err = tx.NamedExecContext(ctx, `
		INSERT INTO guest_info (
			id, booking_id, full_name, email, phone, country, arrival_time, special_requests, celebrating_occasion
		) VALUES (
			:id, :booking_id, :full_name, :email, :phone, :country, :arrival_time, :special_requests, :celebrating_occasion
		)
		`, booking.Guest)
		if err != nil {
			return fmt.Errorf("failed to insert guest info: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, referenceCode string) (*domain.Booking, error) {
	query := `
	SELECT id, reference_code, check_in, check_out, adults, children, infants, bring_own_tent,
		campsite_fee, tent_rental_fee, addons_fee, subtotal, taxes, total, status, created_at
	FROM bookings
	WHERE reference_code = $1
	`

	var booking domain.Booking
	if err := r.db.GetContext(ctx, &booking, query, referenceCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}

	err := r.db.SelectContext(ctx, &booking.Tents, `
	SELECT id, booking_id, tent_type, quantity, price_per_night
	FROM booking_tents
	WHERE booking_id = $1
	ORDER BY created_at, tent_type
	`, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tents: %w", err)
	}

	err = r.db.SelectContext(ctx, &booking.AddOns, `
	SELECT id, booking_id, addon_type, quantity, price
	FROM booking_addons
	WHERE booking_id = $1
	ORDER BY created_at, addon_type
	`, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load add-ons: %w", err)
	}

	var guest domain.GuestRecord
	err = r.db.GetContext(ctx, &guest, `
	SELECT id, booking_id, full_name, email, phone, country, arrival_time, special_requests, celebrating_occasion
	FROM guest_info
	WHERE booking_id = $1
	LIMIT 1
	`, booking.ID)
	switch {
	case err == nil:
		booking.Guest = &guest
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to load guest info: %w", err)
	}

	return &booking, nil
}

func isReferenceConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && pqErr.Constraint == "bookings_reference_code_key"
}
