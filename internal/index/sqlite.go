// Package index serializes the link hierarchy of a built model into SQLite
// so other tools can look up pages and their anchors without rebuilding.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jcdickinson/symdoc/internal/model"
	"github.com/jcdickinson/symdoc/internal/reference"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	// A file that isn't SQLite is stale output of something else; start over.
	if info, err := os.Stat(dbPath); err == nil && info.Size() >= 4 {
		f, err := os.Open(dbPath)
		if err == nil {
			header := make([]byte, 4)
			n, _ := f.Read(header)
			f.Close()
			if n >= 4 && string(header) != "SQLi" {
				slog.Warn("removing non-SQLite index file", "path", dbPath)
				os.Remove(dbPath)
			}
		}
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{conn: conn}
	if err := d.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bundles (
			id INTEGER PRIMARY KEY,
			identifier TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			indexed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS nodes (
			id INTEGER PRIMARY KEY,
			bundle_id INTEGER NOT NULL REFERENCES bundles(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			title TEXT NOT NULL,
			kind TEXT NOT NULL,
			kind_name TEXT NOT NULL,
			language TEXT NOT NULL,
			parent_path TEXT,
			precise_id TEXT,
			UNIQUE(bundle_id, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes (bundle_id, parent_path)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_title ON nodes (title)`,

		`CREATE TABLE IF NOT EXISTS anchors (
			id INTEGER PRIMARY KEY,
			node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			fragment TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anchors_node ON anchors (node_id)`,

		`CREATE TABLE IF NOT EXISTS mentions (
			node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
			article_path TEXT NOT NULL,
			PRIMARY KEY (node_id, article_path)
		)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Bundle operations ---

type Bundle struct {
	ID         int
	Identifier string
	Name       string
	IndexedAt  time.Time
}

// Stats counts what a Store call wrote.
type Stats struct {
	Nodes    int
	Articles int
	Anchors  int
	Mentions int
}

// Store replaces everything indexed for the model's bundle with the model's
// current hierarchy in one transaction.
func (db *DB) Store(ctx context.Context, m *model.Model) (Stats, error) {
	var stats Stats
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bundles WHERE identifier = ?`, m.BundleID); err != nil {
		return stats, fmt.Errorf("clearing bundle: %w", err)
	}
	result, err := tx.ExecContext(ctx, `INSERT INTO bundles (identifier, name) VALUES (?, ?)`, m.BundleID, m.BundleName)
	if err != nil {
		return stats, fmt.Errorf("inserting bundle: %w", err)
	}
	bundleID, err := result.LastInsertId()
	if err != nil {
		return stats, fmt.Errorf("getting bundle id: %w", err)
	}

	insertNode, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (bundle_id, path, title, kind, kind_name, language, parent_path, precise_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("preparing node insert: %w", err)
	}
	defer insertNode.Close()
	insertAnchor, err := tx.PrepareContext(ctx,
		`INSERT INTO anchors (node_id, position, title, fragment) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("preparing anchor insert: %w", err)
	}
	defer insertAnchor.Close()
	insertMention, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO mentions (node_id, article_path) VALUES (?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("preparing mention insert: %w", err)
	}
	defer insertMention.Close()

	for _, n := range m.Nodes() {
		var parent, precise sql.NullString
		if p, ok := m.Parent(n.Reference); ok {
			parent = sql.NullString{String: p.Reference.Path, Valid: true}
		}
		if n.Symbol != nil {
			precise = sql.NullString{String: n.Symbol.ID, Valid: true}
		}
		result, err := insertNode.ExecContext(ctx,
			bundleID, n.Reference.Path, n.Title, n.Kind.Identifier, n.Kind.DisplayName,
			n.Reference.SourceLanguage.String(), parent, precise)
		if err != nil {
			return stats, fmt.Errorf("inserting node %s: %w", n.Reference.Path, err)
		}
		nodeID, err := result.LastInsertId()
		if err != nil {
			return stats, fmt.Errorf("getting node id: %w", err)
		}
		stats.Nodes++
		if n.IsArticle() {
			stats.Articles++
		}

		for i, a := range n.AnchorSections() {
			if _, err := insertAnchor.ExecContext(ctx, nodeID, i, a.Title, a.Reference.Fragment); err != nil {
				return stats, fmt.Errorf("inserting anchor %q of %s: %w", a.Title, n.Reference.Path, err)
			}
			stats.Anchors++
		}
		for _, article := range m.MentionedIn(n.Reference) {
			if _, err := insertMention.ExecContext(ctx, nodeID, article.Path); err != nil {
				return stats, fmt.Errorf("inserting mention of %s: %w", n.Reference.Path, err)
			}
			stats.Mentions++
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing index: %w", err)
	}
	slog.Debug("stored link hierarchy", "bundle", m.BundleID, "nodes", stats.Nodes, "anchors", stats.Anchors)
	return stats, nil
}

func (db *DB) GetBundle(identifier string) (*Bundle, error) {
	var b Bundle
	err := db.conn.QueryRow(
		`SELECT id, identifier, name, indexed_at FROM bundles WHERE identifier = ?`, identifier,
	).Scan(&b.ID, &b.Identifier, &b.Name, &b.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) ListBundles() ([]Bundle, error) {
	rows, err := db.conn.Query(`SELECT id, identifier, name, indexed_at FROM bundles ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []Bundle
	for rows.Next() {
		var b Bundle
		if err := rows.Scan(&b.ID, &b.Identifier, &b.Name, &b.IndexedAt); err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

// --- Node operations ---

type Node struct {
	ID         int
	Path       string
	Title      string
	Kind       string
	KindName   string
	Language   string
	ParentPath string // empty for roots
	PreciseID  string // empty for articles and synthesized pages
}

const nodeColumns = `n.id, n.path, n.title, n.kind, n.kind_name, n.language, COALESCE(n.parent_path, ''), COALESCE(n.precise_id, '')`

func scanNode(row interface{ Scan(...any) error }) (Node, error) {
	var n Node
	err := row.Scan(&n.ID, &n.Path, &n.Title, &n.Kind, &n.KindName, &n.Language, &n.ParentPath, &n.PreciseID)
	return n, err
}

// GetNode returns the node at path, or nil when the bundle has none.
func (db *DB) GetNode(bundle, path string) (*Node, error) {
	n, err := scanNode(db.conn.QueryRow(
		`SELECT `+nodeColumns+` FROM nodes n JOIN bundles b ON b.id = n.bundle_id
		 WHERE b.identifier = ? AND n.path = ?`, bundle, path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Children returns the direct children of path ordered by title, then path.
func (db *DB) Children(bundle, path string) ([]Node, error) {
	return db.queryNodes(
		`SELECT `+nodeColumns+` FROM nodes n JOIN bundles b ON b.id = n.bundle_id
		 WHERE b.identifier = ? AND n.parent_path = ? ORDER BY n.title, n.path`, bundle, path)
}

// FindByTitle returns nodes whose title contains query, case-insensitively.
func (db *DB) FindByTitle(bundle, query string, limit int) ([]Node, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	return db.queryNodes(
		`SELECT `+nodeColumns+` FROM nodes n JOIN bundles b ON b.id = n.bundle_id
		 WHERE b.identifier = ? AND n.title LIKE ? ESCAPE '\'
		 ORDER BY length(n.title), n.title, n.path LIMIT ?`, bundle, "%"+escaped+"%", limit)
}

func (db *DB) queryNodes(query string, args ...any) ([]Node, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// --- Anchor operations ---

type Anchor struct {
	Title    string
	Fragment string
}

// Anchors returns a page's anchor sections in document order.
func (db *DB) Anchors(bundle, path string) ([]Anchor, error) {
	rows, err := db.conn.Query(
		`SELECT a.title, a.fragment FROM anchors a
		 JOIN nodes n ON n.id = a.node_id JOIN bundles b ON b.id = n.bundle_id
		 WHERE b.identifier = ? AND n.path = ? ORDER BY a.position`, bundle, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var anchors []Anchor
	for rows.Next() {
		var a Anchor
		if err := rows.Scan(&a.Title, &a.Fragment); err != nil {
			return nil, err
		}
		anchors = append(anchors, a)
	}
	return anchors, rows.Err()
}

// MentionedIn returns the article paths that mention the page at path.
func (db *DB) MentionedIn(bundle, path string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT m.article_path FROM mentions m
		 JOIN nodes n ON n.id = m.node_id JOIN bundles b ON b.id = n.bundle_id
		 WHERE b.identifier = ? AND n.path = ? ORDER BY m.article_path`, bundle, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// --- Lookup ---

// Page is an indexed page with what a reader needs to navigate from it.
type Page struct {
	Node
	Children    []Node
	Anchors     []Anchor
	MentionedIn []string
}

// Lookup returns the page a link names, or nil when the bundle has none. The
// link is a doc:// URI, whose bundle then wins over bundle, an absolute
// path, or a path below the documentation root. Fragments are ignored.
func (db *DB) Lookup(bundle, link string) (*Page, error) {
	path := link
	if strings.HasPrefix(link, reference.Scheme+"://") {
		ref, err := reference.Parse(link, "")
		if err != nil {
			return nil, err
		}
		ref = ref.WithoutFragment()
		bundle, path = ref.BundleID, ref.Path
	} else {
		path, _, _ = strings.Cut(path, "#")
		if !strings.HasPrefix(path, "/") {
			path = reference.DocumentationRoot + "/" + path
		}
	}

	n, err := db.GetNode(bundle, path)
	if err != nil || n == nil {
		return nil, err
	}
	page := &Page{Node: *n}
	if page.Children, err = db.Children(bundle, path); err != nil {
		return nil, fmt.Errorf("reading children: %w", err)
	}
	if page.Anchors, err = db.Anchors(bundle, path); err != nil {
		return nil, fmt.Errorf("reading anchors: %w", err)
	}
	if page.MentionedIn, err = db.MentionedIn(bundle, path); err != nil {
		return nil, fmt.Errorf("reading mentions: %w", err)
	}
	return page, nil
}
