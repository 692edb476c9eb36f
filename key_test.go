package recordtrail_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/recordtrail"
)

func TestPrimaryKey_Canonical(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		key     recordtrail.PrimaryKey
		want    string
		wantErr bool
	}{
		{name: "single int", key: recordtrail.PrimaryKey{"id": 1}, want: `{"id":1}`},
		{name: "numeric string unquoted", key: recordtrail.PrimaryKey{"id": "42"}, want: `{"id":42}`},
		{name: "zero string", key: recordtrail.PrimaryKey{"id": "0"}, want: `{"id":0}`},
		{name: "leading zero stays quoted", key: recordtrail.PrimaryKey{"id": "007"}, want: `{"id":"007"}`},
		{name: "negative string unquoted", key: recordtrail.PrimaryKey{"id": "-1"}, want: `{"id":-1}`},
		{name: "negative zero stays quoted", key: recordtrail.PrimaryKey{"id": "-0"}, want: `{"id":"-0"}`},
		{name: "negative int", key: recordtrail.PrimaryKey{"id": int64(-3)}, want: `{"id":-3}`},
		{name: "text", key: recordtrail.PrimaryKey{"code": "a\"b"}, want: `{"code":"a\"b"}`},
		{name: "html chars unescaped", key: recordtrail.PrimaryKey{"code": "<a&b>"}, want: `{"code":"<a&b>"}`},
		{name: "bool", key: recordtrail.PrimaryKey{"active": true}, want: `{"active":true}`},
		{name: "sorted composite", key: recordtrail.PrimaryKey{"b": 2, "a": 1}, want: `{"a":1,"b":2}`},
		{name: "uint", key: recordtrail.PrimaryKey{"id": uint32(9)}, want: `{"id":9}`},
		{name: "empty", key: recordtrail.PrimaryKey{}, wantErr: true},
		{name: "nil map", key: nil, wantErr: true},
		{name: "blank name", key: recordtrail.PrimaryKey{" ": 1}, wantErr: true},
		{name: "nil value", key: recordtrail.PrimaryKey{"id": nil}, wantErr: true},
		{name: "float", key: recordtrail.PrimaryKey{"id": 1.5}, wantErr: true},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.key.Canonical()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, recordtrail.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPrimaryKey_IntAndStringAreSameRecord(t *testing.T) {
	t.Parallel()

	a, err := recordtrail.PrimaryKey{"id": 7}.Canonical()
	require.NoError(t, err)
	b, err := recordtrail.PrimaryKey{"id": "7"}.Canonical()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	neg, err := recordtrail.PrimaryKey{"id": -5}.Canonical()
	require.NoError(t, err)
	negText, err := recordtrail.PrimaryKey{"id": "-5"}.Canonical()
	require.NoError(t, err)
	assert.Equal(t, neg, negText)
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	key, err := recordtrail.ParseKey(`{"order_id": 12, "line": "a"}`)
	require.NoError(t, err)
	assert.Equal(t, recordtrail.PrimaryKey{"order_id": int64(12), "line": "a"}, key)

	canonical, err := key.Canonical()
	require.NoError(t, err)
	assert.Equal(t, `{"line":"a","order_id":12}`, canonical)

	for _, in := range []string{``, `[]`, `{}`, `{"id": 1.5}`, `{"id": 1} {}`, `{"id": null}`} {
		_, err := recordtrail.ParseKey(in)
		assert.Error(t, err, in)
	}
}
