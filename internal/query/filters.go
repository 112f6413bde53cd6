package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/matthewbaird/infraview/internal/gql"
)

// DefaultPageSize is the list page size when none is configured.
const DefaultPageSize = 10

// Pagination is an offset/limit window.
type Pagination struct {
	Offset int
	Limit  int
}

// Args renders the window as offset and limit arguments. A non-positive
// limit yields no arguments.
func (p Pagination) Args() []gql.Argument {
	if p.Limit <= 0 {
		return nil
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return []gql.Argument{
		gql.Arg("offset", gql.Int(offset)),
		gql.Arg("limit", gql.Int(p.Limit)),
	}
}

// Paginate puts p's arguments in front of args unless args already carry
// their own offset or limit.
func Paginate(args []gql.Argument, p Pagination) []gql.Argument {
	for _, a := range args {
		if a.Name == "offset" || a.Name == "limit" {
			return args
		}
	}
	return append(p.Args(), args...)
}

// ParseFilters turns URL parameters into validated query arguments. Keys
// listed in skip are ignored. offset and limit come first and must be
// integers; the remaining keys follow in sorted order. Values are typed:
// "true"/"false" become booleans, canonical integers become ints and
// anything else a string. A repeated key becomes a list.
func ParseFilters(values url.Values, skip ...string) ([]gql.Argument, error) {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}

	var args []gql.Argument
	for _, key := range []string{"offset", "limit"} {
		if skipped[key] {
			continue
		}
		raw := values[key]
		if len(raw) == 0 {
			continue
		}
		n, err := strconv.Atoi(raw[len(raw)-1])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("filter %s: %q is not a non-negative integer", key, raw[len(raw)-1])
		}
		args = append(args, gql.Arg(key, gql.Int(n)))
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "offset" || k == "limit" || skipped[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !gql.ValidName(k) {
			return nil, fmt.Errorf("filter %q: %w", k, gql.ErrInvalidName)
		}
		raw := values[k]
		switch len(raw) {
		case 0:
			continue
		case 1:
			args = append(args, gql.Arg(k, filterValue(raw[0])))
		default:
			list := make(gql.List, len(raw))
			for i, v := range raw {
				list[i] = filterValue(v)
			}
			args = append(args, gql.Arg(k, list))
		}
	}
	return args, nil
}

func filterValue(s string) gql.Value {
	switch s {
	case "true":
		return gql.Bool(true)
	case "false":
		return gql.Bool(false)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return gql.Int(n)
	}
	return gql.String(s)
}
