package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cata32101/odysseus-app/internal/model"
)

// SaveCompanies replaces the stored company snapshot. The replacement is
// transactional: readers either see the old snapshot or the new one.
func (s *SQLiteCache) SaveCompanies(ctx context.Context, companies []model.Company) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM company_snapshots"); err != nil {
		return fmt.Errorf("failed to clear company snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO company_snapshots (id, payload, status) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range companies {
		payload, err := json.Marshal(&companies[i])
		if err != nil {
			return fmt.Errorf("failed to encode company %d: %w", companies[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx, companies[i].ID, string(payload), string(companies[i].Status)); err != nil {
			return fmt.Errorf("failed to insert company %d: %w", companies[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit company snapshot: %w", err)
	}
	return nil
}

// LoadCompanies returns the stored company snapshot, oldest ID first.
func (s *SQLiteCache) LoadCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM company_snapshots ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query company snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var companies []model.Company
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan company snapshot row: %w", err)
		}
		var company model.Company
		if err := json.Unmarshal([]byte(payload), &company); err != nil {
			return nil, fmt.Errorf("failed to decode company snapshot row: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read company snapshot: %w", err)
	}
	return companies, nil
}

// SaveContacts replaces the stored contact snapshot.
func (s *SQLiteCache) SaveContacts(ctx context.Context, contacts []model.Contact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM contact_snapshots"); err != nil {
		return fmt.Errorf("failed to clear contact snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO contact_snapshots (id, payload) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range contacts {
		payload, err := json.Marshal(&contacts[i])
		if err != nil {
			return fmt.Errorf("failed to encode contact %d: %w", contacts[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx, contacts[i].ID, string(payload)); err != nil {
			return fmt.Errorf("failed to insert contact %d: %w", contacts[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contact snapshot: %w", err)
	}
	return nil
}

// LoadContacts returns the stored contact snapshot, oldest ID first.
func (s *SQLiteCache) LoadContacts(ctx context.Context) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM contact_snapshots ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query contact snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []model.Contact
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan contact snapshot row: %w", err)
		}
		var contact model.Contact
		if err := json.Unmarshal([]byte(payload), &contact); err != nil {
			return nil, fmt.Errorf("failed to decode contact snapshot row: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contact snapshot: %w", err)
	}
	return contacts, nil
}

// StatusCounts returns the number of snapshotted companies per status
// without decoding payloads. Used by the startup statistics path.
func (s *SQLiteCache) StatusCounts(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM company_snapshots GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}
	return counts, nil
}
