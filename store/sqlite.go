package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/TEENet-io/ordinals-go/database"
	"github.com/TEENet-io/ordinals-go/ordinals"
)

const MemoryDSN = ":memory:"

const (
	ordinalsTable    = "ordinals"
	collectionsTable = "collections"

	// columns shared by both tables, in scan order.
	inscriptionColumns = "txid, commit_txid, inscription_id, status, block_height, block_hash, fees, size, network, created_at, updated_at"
	ordinalColumns     = "id, name, description, bitcoin_address, collection_id, attributes, image, " + inscriptionColumns
	collectionColumns  = "id, name, description, symbol, bitcoin_address, image, " + inscriptionColumns
)

// SQLiteStore implements Store on sqlite.
type SQLiteStore struct {
	db    *sql.DB
	stmts *database.StmtCache
	now   func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dbFilePath and creates the tables
// if not existed before. An empty path means MemoryDSN.
func NewSQLiteStore(dbFilePath string) (*SQLiteStore, error) {
	if dbFilePath == "" {
		dbFilePath = MemoryDSN
	}
	db, err := sql.Open("sqlite3", dbFilePath)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a new database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, stmts: database.NewStmtCache(db), now: time.Now}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	inscription := `
		txid TEXT NOT NULL,
		commit_txid TEXT NOT NULL,
		inscription_id TEXT NOT NULL,
		status TEXT NOT NULL,
		block_height INTEGER,
		block_hash TEXT NOT NULL DEFAULT '',
		fees INTEGER NOT NULL,
		size INTEGER NOT NULL,
		network TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL`

	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		bitcoin_address TEXT NOT NULL,
		collection_id TEXT NOT NULL DEFAULT '',
		attributes TEXT NOT NULL,
		image TEXT NOT NULL,%s
	);
	CREATE INDEX IF NOT EXISTS idx_ordinals_collection ON %s (collection_id);
	CREATE INDEX IF NOT EXISTS idx_ordinals_address ON %s (bitcoin_address);
	CREATE INDEX IF NOT EXISTS idx_ordinals_status ON %s (status);
	CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		symbol TEXT NOT NULL,
		bitcoin_address TEXT NOT NULL,
		image TEXT NOT NULL,%s
	);
	CREATE INDEX IF NOT EXISTS idx_collections_address ON %s (bitcoin_address);
	CREATE INDEX IF NOT EXISTS idx_collections_status ON %s (status);
	`,
		ordinalsTable, inscription, ordinalsTable, ordinalsTable, ordinalsTable,
		collectionsTable, inscription, collectionsTable, collectionsTable)
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStore) Close() error {
	s.stmts.Clear()
	return s.db.Close()
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	stmt, err := s.stmts.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return stmt.ExecContext(ctx, args...)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	stmt, err := s.stmts.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, args...)
}

// stamp sets id, status and times on a new record.
func (s *SQLiteStore) stamp(id *string, ins *Inscription) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if ins.Status == "" {
		ins.Status = StatusPending
	}
	now := s.now().UTC()
	if ins.Timestamp.IsZero() {
		ins.Timestamp = now
	}
	ins.UpdatedAt = now
}

func inscriptionArgs(ins *Inscription) []interface{} {
	return []interface{}{
		ins.Txid, ins.CommitTxid, ins.InscriptionID, string(ins.Status),
		nullableHeight(ins.BlockHeight), ins.BlockHash, ins.Fees, ins.Size, ins.Network,
		ins.Timestamp.UnixMilli(), ins.UpdatedAt.UnixMilli(),
	}
}

func nullableHeight(h *int64) sql.NullInt64 {
	if h == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *h, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *SQLiteStore) CreateOrdinal(ctx context.Context, o *Ordinal) error {
	if !validStatus(o.Status) {
		return fmt.Errorf("invalid status %q", o.Status)
	}
	s.stamp(&o.ID, &o.Inscription)
	attributes, err := marshalAttributes(o.Attributes)
	if err != nil {
		return err
	}
	args := append([]interface{}{o.ID, o.Name, o.Description, o.BitcoinAddress, o.CollectionID, attributes, o.Image},
		inscriptionArgs(&o.Inscription)...)
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s);`, ordinalsTable, ordinalColumns, placeholders(len(args)))
	_, err = s.exec(ctx, query, args...)
	return err
}

func (s *SQLiteStore) GetOrdinal(ctx context.Context, id string) (*Ordinal, error) {
	list, err := s.selectOrdinals(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (s *SQLiteStore) ListOrdinals(ctx context.Context, f OrdinalFilter) ([]*Ordinal, error) {
	var conds []string
	var args []interface{}
	if f.CollectionID != "" {
		conds = append(conds, "collection_id = ?")
		args = append(args, f.CollectionID)
	}
	if f.BitcoinAddress != "" {
		conds = append(conds, "bitcoin_address = ?")
		args = append(args, f.BitcoinAddress)
	}
	return s.selectOrdinals(ctx, where(conds), args...)
}

func (s *SQLiteStore) UpdateOrdinal(ctx context.Context, o *Ordinal) error {
	if !validStatus(o.Status) {
		return fmt.Errorf("invalid status %q", o.Status)
	}
	attributes, err := marshalAttributes(o.Attributes)
	if err != nil {
		return err
	}
	o.UpdatedAt = s.now().UTC()
	query := fmt.Sprintf(`
	UPDATE %s SET name = ?, description = ?, bitcoin_address = ?, collection_id = ?, attributes = ?, image = ?,
		txid = ?, commit_txid = ?, inscription_id = ?, status = ?, block_height = ?, block_hash = ?,
		fees = ?, size = ?, network = ?, updated_at = ?
	WHERE id = ?;
	`, ordinalsTable)
	res, err := s.exec(ctx, query,
		o.Name, o.Description, o.BitcoinAddress, o.CollectionID, attributes, o.Image,
		o.Txid, o.CommitTxid, o.InscriptionID, string(o.Status), nullableHeight(o.BlockHeight), o.BlockHash,
		o.Fees, o.Size, o.Network, o.UpdatedAt.UnixMilli(), o.ID)
	return mustAffect(res, err)
}

func (s *SQLiteStore) selectOrdinals(ctx context.Context, clause string, args ...interface{}) ([]*Ordinal, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY created_at, id;`, ordinalColumns, ordinalsTable, clause)
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Ordinal
	for rows.Next() {
		var o Ordinal
		var attributes string
		insDst, finish := scanInscription(&o.Inscription)
		dst := append([]interface{}{&o.ID, &o.Name, &o.Description, &o.BitcoinAddress, &o.CollectionID, &attributes, &o.Image},
			insDst...)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		finish()
		if err := json.Unmarshal([]byte(attributes), &o.Attributes); err != nil {
			return nil, fmt.Errorf("ordinal %s: bad attributes: %w", o.ID, err)
		}
		list = append(list, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SQLiteStore) CreateCollection(ctx context.Context, c *Collection) error {
	if !validStatus(c.Status) {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	s.stamp(&c.ID, &c.Inscription)
	args := append([]interface{}{c.ID, c.Name, c.Description, c.Symbol, c.BitcoinAddress, c.Image},
		inscriptionArgs(&c.Inscription)...)
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s);`, collectionsTable, collectionColumns, placeholders(len(args)))
	_, err := s.exec(ctx, query, args...)
	return err
}

func (s *SQLiteStore) GetCollection(ctx context.Context, id string) (*Collection, error) {
	list, err := s.selectCollections(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (s *SQLiteStore) ListCollections(ctx context.Context, f CollectionFilter) ([]*Collection, error) {
	if f.BitcoinAddress != "" {
		return s.selectCollections(ctx, "WHERE bitcoin_address = ?", f.BitcoinAddress)
	}
	return s.selectCollections(ctx, "")
}

func (s *SQLiteStore) UpdateCollection(ctx context.Context, c *Collection) error {
	if !validStatus(c.Status) {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	c.UpdatedAt = s.now().UTC()
	query := fmt.Sprintf(`
	UPDATE %s SET name = ?, description = ?, symbol = ?, bitcoin_address = ?, image = ?,
		txid = ?, commit_txid = ?, inscription_id = ?, status = ?, block_height = ?, block_hash = ?,
		fees = ?, size = ?, network = ?, updated_at = ?
	WHERE id = ?;
	`, collectionsTable)
	res, err := s.exec(ctx, query,
		c.Name, c.Description, c.Symbol, c.BitcoinAddress, c.Image,
		c.Txid, c.CommitTxid, c.InscriptionID, string(c.Status), nullableHeight(c.BlockHeight), c.BlockHash,
		c.Fees, c.Size, c.Network, c.UpdatedAt.UnixMilli(), c.ID)
	return mustAffect(res, err)
}

func (s *SQLiteStore) selectCollections(ctx context.Context, clause string, args ...interface{}) ([]*Collection, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY created_at, id;`, collectionColumns, collectionsTable, clause)
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Collection
	for rows.Next() {
		var c Collection
		insDst, finish := scanInscription(&c.Inscription)
		dst := append([]interface{}{&c.ID, &c.Name, &c.Description, &c.Symbol, &c.BitcoinAddress, &c.Image},
			insDst...)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		finish()
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SQLiteStore) ListTracked(ctx context.Context) ([]*TrackedTx, error) {
	query := fmt.Sprintf(`
	SELECT '%s', id, txid, network, status, block_height, block_hash, created_at FROM %s WHERE status != ?
	UNION ALL
	SELECT '%s', id, txid, network, status, block_height, block_hash, created_at FROM %s WHERE status != ?
	ORDER BY created_at;
	`, KindOrdinal, ordinalsTable, KindCollection, collectionsTable)
	rows, err := s.query(ctx, query, string(StatusFinalized), string(StatusFinalized))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*TrackedTx
	for rows.Next() {
		var tx TrackedTx
		var status string
		var height sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&tx.Kind, &tx.ID, &tx.Txid, &tx.Network, &status, &height, &tx.BlockHash, &createdAt); err != nil {
			return nil, err
		}
		tx.Status = Status(status)
		if height.Valid {
			tx.BlockHeight = &height.Int64
		}
		list = append(list, &tx)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, kind, id string, u StatusUpdate) error {
	if !u.Status.Valid() {
		return fmt.Errorf("invalid status %q", u.Status)
	}
	var table string
	switch kind {
	case KindOrdinal:
		table = ordinalsTable
	case KindCollection:
		table = collectionsTable
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	query := fmt.Sprintf(`UPDATE %s SET status = ?, block_height = ?, block_hash = ?, updated_at = ? WHERE id = ?;`, table)
	res, err := s.exec(ctx, query,
		string(u.Status), nullableHeight(u.BlockHeight), u.BlockHash, s.now().UTC().UnixMilli(), id)
	return mustAffect(res, err)
}

// scanInscription returns scan targets for inscriptionColumns
// and a func that moves the raw values into ins after Scan.
func scanInscription(ins *Inscription) ([]interface{}, func()) {
	var status string
	var height sql.NullInt64
	var createdAt, updatedAt int64
	dst := []interface{}{
		&ins.Txid, &ins.CommitTxid, &ins.InscriptionID, &status, &height,
		&ins.BlockHash, &ins.Fees, &ins.Size, &ins.Network, &createdAt, &updatedAt,
	}
	return dst, func() {
		ins.Status = Status(status)
		ins.BlockHeight = nil
		if height.Valid {
			h := height.Int64
			ins.BlockHeight = &h
		}
		ins.Timestamp = time.UnixMilli(createdAt).UTC()
		ins.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	}
}

func validStatus(s Status) bool {
	return s == "" || s.Valid()
}

func marshalAttributes(attributes []ordinals.Attribute) (string, error) {
	if attributes == nil {
		attributes = []ordinals.Attribute{}
	}
	b, err := json.Marshal(attributes)
	if err != nil {
		return "", fmt.Errorf("cannot encode attributes: %w", err)
	}
	return string(b), nil
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
