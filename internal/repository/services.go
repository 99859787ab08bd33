package repository

import (
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

const serviceColumns = `id, name, description, duration, price, is_active, created_at, version`

func scanService(row rowScanner) (*domain.Service, error) {
	s := &domain.Service{}
	dst := []any{&s.ID, &s.Name, &s.Description, &s.Duration, &s.Price, &s.IsActive, &s.CreatedAt, &s.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) queryServices(query string, args ...any) ([]*domain.Service, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]*domain.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return services, nil
}

func (r *Repository) GetActiveServices() ([]*domain.Service, error) {
	return r.queryServices(`SELECT ` + serviceColumns + ` FROM services WHERE is_active ORDER BY name`)
}

func (r *Repository) GetAllServices() ([]*domain.Service, error) {
	return r.queryServices(`SELECT ` + serviceColumns + ` FROM services ORDER BY name`)
}

func (r *Repository) GetServiceByID(id int64) (*domain.Service, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	return scanService(r.dbpool.QueryRowContext(ctx, query, id))
}

// GetServicesByIDs 返回以 id 为键的服务，不存在的 id 不会出现在结果中
func (r *Repository) GetServicesByIDs(ids []int64) (map[int64]*domain.Service, error) {
	result := make(map[int64]*domain.Service, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	services, err := r.queryServices(`SELECT `+serviceColumns+` FROM services WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range services {
		result[s.ID] = s
	}

	return result, nil
}

func (r *Repository) CreateService(s *domain.Service) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		INSERT INTO services (name, description, duration, price, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	args := []any{s.Name, s.Description, s.Duration, s.Price, s.IsActive}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.Version)
}

func (r *Repository) UpdateService(s *domain.Service) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		UPDATE services
		SET name = $1, description = $2, duration = $3, price = $4, is_active = $5, version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	args := []any{s.Name, s.Description, s.Duration, s.Price, s.IsActive, s.ID, s.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.Version)
}

func (r *Repository) DeleteService(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
