package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/adx-tools/adx/internal/host"
	"github.com/adx-tools/adx/pkg/types"
)

// Meta keys used by the CLI to persist export parameters with the analysis
// data.
const (
	MetaBinaryID    = "binary_identifier"
	MetaBaseAddress = "base_address"
)

// DB implements host.Database on a SQLite file, giving the CLI a standalone
// analysis database to export from and import into without a live
// disassembler.
type DB struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Open opens (creating if necessary) a SQLite analysis database.
func Open(dbPath string) (*DB, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection
func (s *DB) Close() error {
	return s.db.Close()
}

// Addresses are stored as the two's-complement int64 bit pattern so the full
// uint64 range survives SQLite's signed INTEGER column.

func (s *DB) ListFunctions(ctx context.Context) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT address FROM functions")
	if err != nil {
		return nil, fmt.Errorf("failed to list functions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var addrs []uint64
	for rows.Next() {
		var raw int64
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		addrs = append(addrs, uint64(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortAddrs(addrs)
	return addrs, nil
}

func (s *DB) CreateFunction(ctx context.Context, addr uint64) error {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO functions (address) VALUES (?) ON CONFLICT(address) DO NOTHING", int64(addr))
	if err != nil {
		return fmt.Errorf("failed to create function: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return host.ErrAlreadyExists
	}
	return nil
}

func (s *DB) GetName(ctx context.Context, addr uint64) (*host.Name, error) {
	var name host.Name
	err := s.db.QueryRowContext(ctx,
		"SELECT name, is_user FROM names WHERE address = ?", int64(addr)).
		Scan(&name.Value, &name.UserAssigned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, host.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &name, nil
}

func (s *DB) SetName(ctx context.Context, addr uint64, name string, userAssigned bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO names (address, name, is_user) VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET name = excluded.name, is_user = excluded.is_user
	`, int64(addr), name, userAssigned)
	if err != nil {
		return fmt.Errorf("failed to set name: %w", err)
	}
	return nil
}

func (s *DB) GetComment(ctx context.Context, addr uint64) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		"SELECT text FROM comments WHERE address = ?", int64(addr)).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", host.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *DB) SetComment(ctx context.Context, addr uint64, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (address, text) VALUES (?, ?)
		ON CONFLICT(address) DO UPDATE SET text = excluded.text
	`, int64(addr), text)
	if err != nil {
		return fmt.Errorf("failed to set comment: %w", err)
	}
	return nil
}

func (s *DB) ListStructures(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM structures ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list structures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *DB) GetStructure(ctx context.Context, id string) ([]types.StructMember, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM structures WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, host.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT offset, size, type_name, member_name
		FROM struct_members WHERE structure_id = ? ORDER BY offset
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get structure: %w", err)
	}
	defer func() { _ = rows.Close() }()

	members := []types.StructMember{}
	for rows.Next() {
		var member types.StructMember
		var offset, size int64
		if err := rows.Scan(&offset, &size, &member.TypeName, &member.MemberName); err != nil {
			return nil, err
		}
		member.Offset = uint64(offset)
		member.Size = uint64(size)
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *DB) CreateStructure(ctx context.Context, id string, members []types.StructMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO structures (id) VALUES (?) ON CONFLICT(id) DO NOTHING", id)
	if err != nil {
		return fmt.Errorf("failed to create structure: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return host.ErrAlreadyExists
	}

	for _, member := range members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO struct_members (structure_id, offset, size, type_name, member_name)
			VALUES (?, ?, ?, ?, ?)
		`, id, int64(member.Offset), int64(member.Size), member.TypeName, member.MemberName); err != nil {
			return fmt.Errorf("failed to insert member at offset %d: %w", member.Offset, err)
		}
	}

	return tx.Commit()
}

func (s *DB) AppendMember(ctx context.Context, id string, member types.StructMember) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM structures WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return host.ErrNotFound
	}
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO struct_members (structure_id, offset, size, type_name, member_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(structure_id, offset) DO NOTHING
	`, id, int64(member.Offset), int64(member.Size), member.TypeName, member.MemberName)
	if err != nil {
		return fmt.Errorf("failed to append member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return host.ErrAlreadyExists
	}
	return nil
}

// ListNamedAddresses returns every address with a name binding, ascending.
func (s *DB) ListNamedAddresses(ctx context.Context) ([]uint64, error) {
	return s.listAddrs(ctx, "SELECT address FROM names")
}

// ListCommentedAddresses returns every address with a comment, ascending.
func (s *DB) ListCommentedAddresses(ctx context.Context) ([]uint64, error) {
	return s.listAddrs(ctx, "SELECT address FROM comments")
}

func (s *DB) listAddrs(ctx context.Context, query string) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var addrs []uint64
	for rows.Next() {
		var raw int64
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		addrs = append(addrs, uint64(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortAddrs(addrs)
	return addrs, nil
}

// SetMeta stores a database-level metadata value.
func (s *DB) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %q: %w", key, err)
	}
	return nil
}

// GetMeta returns a database-level metadata value, or host.ErrNotFound.
func (s *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", host.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// sortAddrs orders addresses in Go because the int64 bit pattern in SQLite
// would misorder addresses above 1<<63 under ORDER BY.
func sortAddrs(addrs []uint64) {
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
}
