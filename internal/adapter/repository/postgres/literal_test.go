package postgres

import (
	"strings"
	"testing"
	"time"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		args []any
		want string
	}{
		{
			name: "Integers",
			sql:  "where level_id = $1 and x = $2",
			args: []any{int64(2), 120},
			want: "where level_id = 2 and x = 120",
		},
		{
			name: "String Is Quoted",
			sql:  "where tag = $1",
			args: []any{"LS5"},
			want: "where tag = 'LS5'",
		},
		{
			name: "Embedded Quote Is Doubled",
			sql:  "where name = $1",
			args: []any{"o'brien"},
			want: "where name = 'o''brien'",
		},
		{
			name: "Date Renders As Day Precision",
			sql:  "between $1::date and $2::date",
			args: []any{
				time.Date(2005, 1, 1, 13, 30, 0, 0, time.UTC),
				time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC),
			},
			want: "between '2005-01-01'::date and '2005-12-31'::date",
		},
		{
			name: "Int Array",
			sql:  "x = any($1)",
			args: []any{[]int64{120, 121}},
			want: "x = any(ARRAY[120,121]::bigint[])",
		},
		{
			name: "String Array",
			sql:  "tag = any($1)",
			args: []any{[]string{"LS5", "LS7"}},
			want: "tag = any(ARRAY['LS5','LS7']::text[])",
		},
		{
			name: "Placeholders Above Nine",
			sql:  "a=$1 b=$10",
			args: []any{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			want: "a=1 b=10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := interpolate(tt.sql, tt.args)
			if err != nil {
				t.Fatalf("interpolate: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterpolateErrors(t *testing.T) {
	t.Run("Placeholder Out Of Range", func(t *testing.T) {
		if _, err := interpolate("where x = $2", []any{1}); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("Unsupported Type", func(t *testing.T) {
		if _, err := interpolate("where x = $1", []any{3.14}); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("NUL Byte In Literal", func(t *testing.T) {
		if _, err := interpolate("where x = $1", []any{"bad\x00input"}); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestCopyStatement(t *testing.T) {
	got := copyStatement("select 1")

	if !strings.HasPrefix(got, "copy (\n") {
		t.Errorf("unexpected prefix: %q", got)
	}
	for _, opt := range []string{
		"format csv", "header true", "delimiter ','", `quote '"'`, `escape '"'`, "null ''",
	} {
		if !strings.Contains(got, opt) {
			t.Errorf("missing copy option %q in %q", opt, got)
		}
	}
	if !strings.Contains(got, "to stdout") {
		t.Errorf("expected a stdout copy: %q", got)
	}
}
