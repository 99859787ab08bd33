package repository

import (
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

const customerSelect = `
	SELECT c.id, c.name, c.phone, c.email, c.notes, c.preferences, c.created_at, c.version,
		(SELECT COUNT(*) FROM appointments a WHERE a.customer_id = c.id)
	FROM customers c
`

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	c := &domain.Customer{}
	dst := []any{&c.ID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.Preferences, &c.CreatedAt, &c.Version, &c.AppointmentCount}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) GetAllCustomers() ([]*domain.Customer, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, customerSelect+` ORDER BY c.created_at DESC, c.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (r *Repository) GetCustomerByID(id int64) (*domain.Customer, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanCustomer(r.dbpool.QueryRowContext(ctx, customerSelect+` WHERE c.id = $1`, id))
}

func (r *Repository) GetCustomerByPhone(phone string) (*domain.Customer, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanCustomer(r.dbpool.QueryRowContext(ctx, customerSelect+` WHERE c.phone = $1`, phone))
}

func (r *Repository) CreateCustomer(c *domain.Customer) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		INSERT INTO customers (name, phone, email, notes, preferences)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	args := []any{c.Name, c.Phone, c.Email, c.Notes, c.Preferences}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.Version)
}

func (r *Repository) UpdateCustomer(c *domain.Customer) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		UPDATE customers
		SET name = $1, phone = $2, email = $3, notes = $4, preferences = $5, version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	args := []any{c.Name, c.Phone, c.Email, c.Notes, c.Preferences, c.ID, c.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&c.Version)
}

func (r *Repository) DeleteCustomer(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
