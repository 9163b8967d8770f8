package pg

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/remotecollab/api/domain"
)

type DocumentPostgresRepository struct {
	pool *pgxpool.Pool
}

func CreateDocumentTable() string {
	return `CREATE TABLE IF NOT EXISTS documents
(
	id SERIAL NOT NULL PRIMARY KEY,
	title VARCHAR(200) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	type VARCHAR(50) NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
}

const documentSelect = `SELECT d.id, d.title, d.description, d.type, d.url, d.project_id, p.name, d.created_at
FROM documents d
JOIN projects p ON p.id = d.project_id`

func scanDocument(row pgx.Row) (*domain.Document, error) {
	doc := domain.Document{}
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Description, &doc.Type, &doc.URL, &doc.ProjectID, &doc.ProjectName, &doc.CreatedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (dr *DocumentPostgresRepository) GetByID(ctx context.Context, id int) (*domain.Document, error) {
	row := dr.pool.QueryRow(ctx, documentSelect+" WHERE d.id = $1", id)
	return scanDocument(row)
}

func (dr *DocumentPostgresRepository) GetAll(ctx context.Context) ([]domain.Document, error) {
	rows, err := dr.pool.Query(ctx, documentSelect+" ORDER BY d.id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *doc)
	}
	return ret, rows.Err()
}

func (dr *DocumentPostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := dr.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	return count, err
}

func (dr *DocumentPostgresRepository) Insert(ctx context.Context, doc *domain.Document) error {
	row := dr.pool.QueryRow(ctx,
		`INSERT INTO documents (title, description, type, url, project_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		doc.Title, doc.Description, doc.Type, doc.URL, doc.ProjectID)
	return row.Scan(&doc.ID, &doc.CreatedAt)
}

func (dr *DocumentPostgresRepository) Update(ctx context.Context, doc *domain.Document) error {
	cmd, err := dr.pool.Exec(ctx,
		"UPDATE documents SET title = $1, description = $2, type = $3, url = $4 WHERE id = $5",
		doc.Title, doc.Description, doc.Type, doc.URL, doc.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (dr *DocumentPostgresRepository) Delete(ctx context.Context, id int) error {
	cmd, err := dr.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func NewDocumentPostgresRepository(pool *pgxpool.Pool) *DocumentPostgresRepository {
	return &DocumentPostgresRepository{
		pool: pool,
	}
}
