package pgsource

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows serves fixed rows of ten text columns; nil entries are NULL.
type fakeRows struct {
	data [][]*string
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(row) != len(dest) {
		return fmt.Errorf("scan: %d columns into %d targets", len(row), len(dest))
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *string:
			if row[i] == nil {
				return errors.New("cannot scan NULL into *string")
			}
			*d = *row[i]
		case **string:
			*d = row[i]
		default:
			return fmt.Errorf("unsupported target %T", d)
		}
	}
	return nil
}

type fakeDB struct {
	rows  *fakeRows
	err   error
	query string
}

func (db *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	db.query = sql
	if db.err != nil {
		return nil, db.err
	}
	return db.rows, nil
}

func s(v string) *string { return &v }

func TestSource_Templates(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{data: [][]*string{
		{s("yoga"), s("Yoga"), s("/events/yoga"), s("event"), s("2024-01-01 10:00"), s("2024-01-01 11:00"),
			s("MW"), s("weekly"), nil, s("Studio 2")},
		{s("bad"), s("Bad"), s("/events/bad"), s("event"), nil, s("2024-01-01 11:00"), nil, nil, nil, nil},
		{s("gig"), s("Gig"), s(""), s("event"), s("2024-02-01 20:00"), s("2024-02-01 23:00"), nil, nil, nil, nil},
	}}}

	templates, err := New(db).Templates(context.Background())
	require.NoError(t, err)
	assert.Contains(t, db.query, "FROM event_templates")
	require.Len(t, templates, 2, "row with NULL start is skipped")

	yoga := templates[0]
	assert.Equal(t, "yoga", yoga.ID())
	assert.Equal(t, mo.Some("MW"), yoga.RepeatMaskRaw())
	assert.Equal(t, mo.Some("weekly"), yoga.FrequencyRaw())
	assert.True(t, yoga.UntilRaw().IsAbsent())
	assert.Equal(t, mo.Some("Studio 2"), yoga.LocationRaw())

	gig := templates[1]
	assert.Equal(t, "gig", gig.ID())
	assert.True(t, gig.RepeatMaskRaw().IsAbsent())
}

func TestSource_QueryError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := New(&fakeDB{err: boom}).Templates(context.Background())
	assert.ErrorIs(t, err, boom)

	rowsErr := errors.New("broken pipe")
	_, err = New(&fakeDB{rows: &fakeRows{err: rowsErr}}).Templates(context.Background())
	assert.ErrorIs(t, err, rowsErr)
}

type fakeExec struct{ sql string }

func (e *fakeExec) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	e.sql = sql
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func TestEnsureSchema(t *testing.T) {
	e := &fakeExec{}
	require.NoError(t, EnsureSchema(context.Background(), e))
	assert.Contains(t, e.sql, "CREATE TABLE IF NOT EXISTS event_templates")
}
