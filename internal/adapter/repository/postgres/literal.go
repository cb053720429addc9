package postgres

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// COPY statements cannot carry bind parameters, so the export path renders
// the same builder output with safely encoded literals in place of the
// placeholders (the role cursor.mogrify played in the original query layer).

var placeholderRE = regexp.MustCompile(`\$([0-9]+)`)

// interpolate replaces $n placeholders in sql with encoded literals from
// args (1-based).
func interpolate(sql string, args []any) (string, error) {
	var encodeErr error

	out := placeholderRE.ReplaceAllStringFunc(sql, func(ph string) string {
		n, err := strconv.Atoi(ph[1:])
		if err != nil || n < 1 || n > len(args) {
			encodeErr = fmt.Errorf("placeholder %s out of range", ph)
			return ph
		}
		lit, err := encodeLiteral(args[n-1])
		if err != nil {
			encodeErr = err
			return ph
		}
		return lit
	})

	if encodeErr != nil {
		return "", encodeErr
	}
	return out, nil
}

func encodeLiteral(v any) (string, error) {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case string:
		return quoteString(val)
	case time.Time:
		// Temporal arguments are date bounds; the statement casts them.
		return quoteString(val.Format(time.DateOnly))
	case []int64:
		elems := make([]string, len(val))
		for i, x := range val {
			elems[i] = strconv.FormatInt(x, 10)
		}
		return "ARRAY[" + strings.Join(elems, ",") + "]::bigint[]", nil
	case []string:
		elems := make([]string, len(val))
		for i, s := range val {
			q, err := quoteString(s)
			if err != nil {
				return "", err
			}
			elems[i] = q
		}
		return "ARRAY[" + strings.Join(elems, ",") + "]::text[]", nil
	}
	return "", fmt.Errorf("cannot encode %T as a SQL literal", v)
}

// quoteString renders a standard-conforming string literal, doubling single
// quotes. NUL bytes cannot appear in a literal at all.
func quoteString(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("string literal contains NUL byte")
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
}

// copyStatement wraps a select in the bulk CSV export the downstream
// consumers depend on: header row, comma delimiter, double-quote
// quoting/escaping, empty string for null.
func copyStatement(inner string) string {
	return "copy (\n" + inner + "\n) to stdout with (format csv, header true, delimiter ',', quote '\"', escape '\"', null '')"
}
