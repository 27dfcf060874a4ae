// Package presets stores named feature configurations in a sqlite database
// and ships a set of built-in ones.
package presets

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/derive"
	"github.com/marcus/byot/internal/features"
)

const idPrefix = "pr-"

var (
	// ErrNotFound is returned when no preset matches a name or ID.
	ErrNotFound = errors.New("preset not found")
	// ErrInvalidName is returned for empty or malformed preset names.
	ErrInvalidName = errors.New("invalid preset name")
)

// Preset is a named configuration.
type Preset struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
	Config      features.Config `json:"config" yaml:"config"`
	Builtin     bool            `json:"builtin,omitempty" yaml:"-"`
	CreatedAt   time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"-"`
}

// NormalizeID ensures a preset ID has the pr- prefix
func NormalizeID(id string) string {
	if id == "" || strings.HasPrefix(id, idPrefix) {
		return id
	}
	return idPrefix + id
}

// generateID generates a unique preset ID
func generateID() (string, error) {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return idPrefix + hex.EncodeToString(bytes), nil
}

// ValidateName checks that name is usable on the command line and in
// share links.
func ValidateName(name string) error {
	if name == "" {
		return errors.Mark(errors.New("preset name is empty"), ErrInvalidName)
	}
	if strings.HasPrefix(name, idPrefix) {
		return errors.Mark(errors.Newf("preset name %q looks like an ID", name), ErrInvalidName)
	}
	for _, r := range name {
		if !(r == '-' || r == '_' || r == '.' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.Mark(errors.Newf("preset name %q: unexpected %q", name, r), ErrInvalidName)
		}
	}
	return nil
}

// Store wraps the preset database connection
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the database at path and runs any pending
// migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create preset dir")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open preset database")
	}

	// WAL allows concurrent readers while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "set busy timeout")
	}

	s := &Store{conn: conn, path: path}
	if _, err := s.RunMigrations(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// columnExists checks whether a column exists on a table
func (s *Store) columnExists(table, column string) (bool, error) {
	rows, err := s.conn.Query("PRAGMA table_info(" + table + ");")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// SchemaVersion returns the schema version recorded in the database.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	err := s.conn.QueryRow("SELECT CAST(value AS INTEGER) FROM schema_info WHERE key = 'version'").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

func (s *Store) setSchemaVersion(version int) error {
	_, err := s.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`, version)
	return err
}

// RunMigrations brings the schema up to date and returns how many
// migrations ran.
func (s *Store) RunMigrations() (int, error) {
	if _, err := s.conn.Exec(schema); err != nil {
		return 0, errors.Wrap(err, "create schema")
	}
	current, err := s.SchemaVersion()
	if err != nil {
		return 0, err
	}
	if current == 0 {
		current = 1
	}

	ran := 0
	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		// A fresh schema may already carry the column.
		if m.Version == 2 {
			if ok, err := s.columnExists("presets", "tags"); err != nil {
				return ran, err
			} else if ok {
				current = m.Version
				continue
			}
		}
		if _, err := s.conn.Exec(m.SQL); err != nil {
			return ran, errors.Wrapf(err, "migration %d (%s)", m.Version, m.Description)
		}
		current = m.Version
		ran++
	}
	return ran, s.setSchemaVersion(current)
}

func encodeConfig(cfg features.Config) (string, error) {
	data, err := json.Marshal(derive.Strip(cfg))
	return string(data), err
}

func decodeConfig(data string) (features.Config, error) {
	var cfg features.Config
	err := json.Unmarshal([]byte(data), &cfg)
	return cfg, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// Save inserts p, or updates the preset with the same name. p.ID and the
// timestamps are filled in.
func (s *Store) Save(p *Preset) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	cfg, err := encodeConfig(p.Config)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	tags := strings.Join(p.Tags, ",")
	now := time.Now()

	existing, err := s.Get(p.Name)
	switch {
	case err == nil:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = now
		_, err = s.conn.Exec(`UPDATE presets SET description = ?, tags = ?, config = ?, updated_at = ? WHERE id = ?`,
			p.Description, tags, cfg, formatTime(now), p.ID)
		return errors.Wrapf(err, "update preset %s", p.Name)
	case !errors.Is(err, ErrNotFound):
		return err
	}

	id, err := generateID()
	if err != nil {
		return errors.Wrap(err, "generate preset id")
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	_, err = s.conn.Exec(`INSERT INTO presets (id, name, description, tags, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, tags, cfg, formatTime(now), formatTime(now))
	return errors.Wrapf(err, "insert preset %s", p.Name)
}

const selectPreset = `SELECT id, name, description, tags, config, created_at, updated_at FROM presets`

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (*Preset, error) {
	var (
		p                 Preset
		desc, tags        sql.NullString
		cfg, created, upd string
	)
	if err := row.Scan(&p.ID, &p.Name, &desc, &tags, &cfg, &created, &upd); err != nil {
		return nil, err
	}
	p.Description = desc.String
	if tags.String != "" {
		p.Tags = strings.Split(tags.String, ",")
	}
	c, err := decodeConfig(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "decode preset %s", p.Name)
	}
	p.Config = c
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(upd)
	return &p, nil
}

// Get returns the preset with the given name or ID.
func (s *Store) Get(nameOrID string) (*Preset, error) {
	row := s.conn.QueryRow(selectPreset+` WHERE name = ? OR id = ?`, nameOrID, NormalizeID(nameOrID))
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Mark(errors.Newf("preset %q not found", nameOrID), ErrNotFound)
	}
	return p, err
}

// List returns every stored preset ordered by name.
func (s *Store) List() ([]Preset, error) {
	rows, err := s.conn.Query(selectPreset + ` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Delete removes the preset with the given name or ID.
func (s *Store) Delete(nameOrID string) error {
	res, err := s.conn.Exec(`DELETE FROM presets WHERE name = ? OR id = ?`, nameOrID, NormalizeID(nameOrID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Mark(errors.Newf("preset %q not found", nameOrID), ErrNotFound)
	}
	return nil
}

// Resolve finds name among the stored presets first and then among the
// built-ins, and returns its configuration normalized against cat.
func Resolve(s *Store, cat *catalog.Catalog, name string) (*Preset, error) {
	if s != nil {
		p, err := s.Get(name)
		if err == nil {
			p.Config = features.Normalize(cat, p.Config)
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	builtins, err := Builtins(cat)
	if err != nil {
		return nil, err
	}
	for i := range builtins {
		if builtins[i].Name == name {
			return &builtins[i], nil
		}
	}
	return nil, errors.Mark(errors.Newf("preset %q not found", name), ErrNotFound)
}

// All returns built-ins followed by stored presets, with stored presets
// shadowing built-ins of the same name.
func All(s *Store, cat *catalog.Catalog) ([]Preset, error) {
	builtins, err := Builtins(cat)
	if err != nil {
		return nil, err
	}
	var stored []Preset
	if s != nil {
		if stored, err = s.List(); err != nil {
			return nil, err
		}
	}
	shadowed := make(map[string]bool, len(stored))
	for _, p := range stored {
		shadowed[p.Name] = true
	}
	var out []Preset
	for _, p := range builtins {
		if !shadowed[p.Name] {
			out = append(out, p)
		}
	}
	out = append(out, stored...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Builtin != out[j].Builtin {
			return out[i].Builtin
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
