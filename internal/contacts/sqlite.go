package contacts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mnohosten/mailbridge/internal/codec"
	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

const contactsSchema = `
CREATE TABLE IF NOT EXISTS contacts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	grp        TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_grp ON contacts(grp);
`

// contactRow maps the contacts table.
type contactRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Group     string    `db:"grp"`
	Phone     string    `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SQLStore persists contacts in a local sqlite database.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore opens (or creates) the database at dbPath and ensures
// the schema exists.
func NewSQLStore(dbPath string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening contacts db: %w", err)
	}

	// WAL keeps concurrent readers cheap.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec(contactsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating contacts schema: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Add validates the email shape, generates a fresh id and inserts the
// contact.
func (s *SQLStore) Add(name, email, group, phone string) (*model.Contact, error) {
	if err := validateContact(name, email); err != nil {
		return nil, err
	}

	now := time.Now()
	row := contactRow{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Group:     group,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.NamedExec(`
		INSERT INTO contacts (id, name, email, grp, phone, created_at, updated_at)
		VALUES (:id, :name, :email, :grp, :phone, :created_at, :updated_at)`, row)
	if err != nil {
		return nil, fmt.Errorf("inserting contact: %w", err)
	}

	return row.toModel(), nil
}

// List returns up to limit contacts in insertion order; limit <= 0
// returns everything.
func (s *SQLStore) List(limit int) ([]*model.Contact, error) {
	query := `SELECT * FROM contacts ORDER BY created_at, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []contactRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return rowsToModels(rows), nil
}

// Search matches a case-insensitive substring over name, email and
// group.
func (s *SQLStore) Search(query string) ([]*model.Contact, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var rows []contactRow
	err := s.db.Select(&rows, `
		SELECT * FROM contacts
		WHERE lower(name) LIKE ? OR lower(email) LIKE ? OR lower(grp) LIKE ?
		ORDER BY created_at, id`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching contacts: %w", err)
	}
	return rowsToModels(rows), nil
}

// ByGroup returns contacts whose group matches exactly.
func (s *SQLStore) ByGroup(group string) ([]*model.Contact, error) {
	var rows []contactRow
	err := s.db.Select(&rows, `
		SELECT * FROM contacts WHERE grp = ? ORDER BY created_at, id`, group)
	if err != nil {
		return nil, fmt.Errorf("listing group %s: %w", group, err)
	}
	return rowsToModels(rows), nil
}

// Update replaces only the supplied fields.
func (s *SQLStore) Update(id string, update model.ContactUpdate) (*model.Contact, error) {
	if update.Email != nil {
		if err := codec.ValidateAddress(*update.Email); err != nil {
			return nil, err
		}
	}

	var row contactRow
	err := s.db.Get(&row, `SELECT * FROM contacts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: contact %s", mailerr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading contact: %w", err)
	}

	contact := row.toModel()
	applyUpdate(contact, update)

	_, err = s.db.Exec(`
		UPDATE contacts SET name = ?, email = ?, grp = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		contact.Name, contact.Email, contact.Group, contact.Phone, contact.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("updating contact: %w", err)
	}

	return contact, nil
}

// Delete removes a contact, or reports ErrNotFound.
func (s *SQLStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: contact %s", mailerr.ErrNotFound, id)
	}
	return nil
}

func (r contactRow) toModel() *model.Contact {
	return &model.Contact{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Group:     r.Group,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func rowsToModels(rows []contactRow) []*model.Contact {
	out := make([]*model.Contact, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out
}
