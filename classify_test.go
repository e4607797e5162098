package failover

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsReadOnlyError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "read-only option",
			err:  &mysql.MySQLError{Number: 1290, Message: "The MySQL server is running with the --read-only option so it cannot execute this statement"},
			want: true,
		},
		{
			name: "super-read-only option",
			err:  &mysql.MySQLError{Number: 1290, Message: "The MySQL server is running with the --super-read-only option so it cannot execute this statement"},
			want: true,
		},
		{
			name: "plain error with marker",
			err:  errors.New("query failed: server running with the --read-only option"),
			want: true,
		},
		{
			name: "wrapped read-only error",
			err:  fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1290, Message: "running with the --read-only option"}),
			want: true,
		},
		{
			name: "unrelated MySQL error",
			err:  &mysql.MySQLError{Number: 1045, Message: "Access denied for user"},
			want: false,
		},
		{
			name: "read only words without option marker",
			err:  errors.New("table is read only"),
			want: false,
		},
		{
			name: "garbled text",
			err:  errors.New("\x00\xffnot a real message"),
			want: false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsReadOnlyError(tc.err))
		})
	}
}

func TestIsTransientConnectionError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "not connected",
			err:  errors.New("MySQL client is not connected"),
			want: true,
		},
		{
			name: "lost connection",
			err:  errors.New("Lost connection to MySQL server during query"),
			want: true,
		},
		{
			name: "cannot connect",
			err:  errors.New("Can't connect to MySQL server on 'db.example.com' (110)"),
			want: true,
		},
		{
			name: "server shutdown",
			err:  &mysql.MySQLError{Number: 1053, Message: "Server shutdown in progress"},
			want: true,
		},
		{
			name: "syntax error",
			err:  &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"},
			want: false,
		},
		{
			name: "deadlock is not a connection error",
			err:  &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"},
			want: false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsTransientConnectionError(tc.err))
		})
	}
}
