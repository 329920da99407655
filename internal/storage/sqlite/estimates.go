package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serhq/estimator/internal/models"
	"github.com/serhq/estimator/internal/storage"
)

// SaveEstimate persists an estimate and its line items, replacing any
// previous version in a single transaction.
func (s *SQLiteStore) SaveEstimate(ctx context.Context, estimate *models.Estimate) error {
	if estimate.ID == "" {
		estimate.ID = uuid.New().String()
	}
	if estimate.CreatedAt == 0 {
		estimate.CreatedAt = time.Now().UnixMilli()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d := estimate.Details
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO estimates (
			id, client_name, project_name, project_date, location, email, phone, notes,
			payment_link, business_name, business_logo, payable_to,
			business_address, business_email, business_phone,
			markup_percent, tax_percent, currency, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		estimate.ID, d.ClientName, d.ProjectName, d.ProjectDate, d.Location, d.Email, d.Phone, d.Notes,
		d.PaymentLink, d.BusinessName, d.BusinessLogo, d.PayableTo,
		d.BusinessAddress, d.BusinessEmail, d.BusinessPhone,
		estimate.MarkupPercent, estimate.TaxPercent, estimate.Currency, estimate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert estimate: %w", err)
	}

	// Replace line items wholesale; position preserves display order.
	if _, err := tx.ExecContext(ctx, "DELETE FROM line_items WHERE estimate_id = ?", estimate.ID); err != nil {
		return fmt.Errorf("failed to clear line items: %w", err)
	}

	for i := range estimate.Items {
		item := &estimate.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO line_items (id, estimate_id, position, description, category, quantity, rate, unit, taxable)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, estimate.ID, i, item.Description, string(item.Category),
			item.Quantity, item.Rate, item.Unit, item.Taxable,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetEstimate retrieves an estimate by ID, including all line items in
// display order.
func (s *SQLiteStore) GetEstimate(ctx context.Context, id string) (*models.Estimate, error) {
	estimate := &models.Estimate{}
	d := &estimate.Details
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_name, project_name, project_date, location, email, phone, notes,
			payment_link, business_name, business_logo, payable_to,
			business_address, business_email, business_phone,
			markup_percent, tax_percent, currency, created_at
		FROM estimates WHERE id = ?`, id,
	).Scan(
		&estimate.ID, &d.ClientName, &d.ProjectName, &d.ProjectDate, &d.Location, &d.Email, &d.Phone, &d.Notes,
		&d.PaymentLink, &d.BusinessName, &d.BusinessLogo, &d.PayableTo,
		&d.BusinessAddress, &d.BusinessEmail, &d.BusinessPhone,
		&estimate.MarkupPercent, &estimate.TaxPercent, &estimate.Currency, &estimate.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("estimate %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, category, quantity, rate, unit, taxable
		FROM line_items WHERE estimate_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.LineItem
		var category string
		if err := rows.Scan(&item.ID, &item.Description, &category,
			&item.Quantity, &item.Rate, &item.Unit, &item.Taxable); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		item.Category = models.Category(category)
		estimate.Items = append(estimate.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}

	return estimate, nil
}

// ListEstimates returns all estimates, newest first. Line items are not
// loaded; callers fetch a full estimate by ID when they need them.
func (s *SQLiteStore) ListEstimates(ctx context.Context) ([]*models.Estimate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_name, project_name, project_date, location, email, phone, notes,
			payment_link, business_name, business_logo, payable_to,
			business_address, business_email, business_phone,
			markup_percent, tax_percent, currency, created_at
		FROM estimates ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	var estimates []*models.Estimate
	for rows.Next() {
		estimate := &models.Estimate{}
		d := &estimate.Details
		if err := rows.Scan(
			&estimate.ID, &d.ClientName, &d.ProjectName, &d.ProjectDate, &d.Location, &d.Email, &d.Phone, &d.Notes,
			&d.PaymentLink, &d.BusinessName, &d.BusinessLogo, &d.PayableTo,
			&d.BusinessAddress, &d.BusinessEmail, &d.BusinessPhone,
			&estimate.MarkupPercent, &estimate.TaxPercent, &estimate.Currency, &estimate.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		estimates = append(estimates, estimate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate estimates: %w", err)
	}

	return estimates, nil
}

// DeleteEstimate removes an estimate; line items cascade.
func (s *SQLiteStore) DeleteEstimate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM estimates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete estimate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("estimate %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
