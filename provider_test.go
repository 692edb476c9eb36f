package recordtrail_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/recordtrail"
)

func TestDialectFor(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"pgx", "postgres", "PostgreSQL"} {
		d, err := recordtrail.DialectFor(name)
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	}
	for _, name := range []string{"mysql", "mariadb"} {
		d, err := recordtrail.DialectFor(name)
		require.NoError(t, err)
		assert.Equal(t, "mysql", d.Name())
	}
	_, err := recordtrail.DialectFor("sqlite3")
	assert.Error(t, err)
}

func TestDialect_RebindAndQuote(t *testing.T) {
	t.Parallel()

	pg := recordtrail.Postgres{}
	assert.Equal(t, "a = $1 AND b = $2", pg.Rebind("a = ? AND b = ?"))
	assert.Equal(t, `"audit"."log_record"`, pg.Quote([]string{"audit", "log_record"}))

	my := recordtrail.MySQL{}
	assert.Equal(t, "a = ? AND b = ?", my.Rebind("a = ? AND b = ?"))
	assert.Equal(t, "`audit`.`log_record`", my.Quote([]string{"audit", "log_record"}))
}

func TestContextMetadata(t *testing.T) {
	t.Parallel()

	ctx := recordtrail.WithActor(context.Background(), "alice")
	ctx = recordtrail.WithTraceID(ctx, "t-1")
	assert.Equal(t, "alice", recordtrail.ActorFrom(ctx))
	assert.Equal(t, "", recordtrail.ActorFrom(context.Background()))
}

func TestParseEmptyChange(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]recordtrail.EmptyChange{
		"":       recordtrail.EmptyCommit,
		"commit": recordtrail.EmptyCommit,
		"Reject": recordtrail.EmptyReject,
		"skip":   recordtrail.EmptySkip,
	} {
		got, err := recordtrail.ParseEmptyChange(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := recordtrail.ParseEmptyChange("ignore")
	assert.Error(t, err)
	assert.Equal(t, "reject", recordtrail.EmptyReject.String())
}
