package storage

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SortField is a column the student list may be ordered by.
type SortField string

const (
	SortByName    SortField = "name"
	SortByCourse  SortField = "course"
	SortByAge     SortField = "age"
	SortByAddress SortField = "address"
)

// SortDirection is the ordering direction.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// sortColumns maps sort fields to SQL columns. Only these strings are ever
// interpolated into ORDER BY.
var sortColumns = map[SortField]string{
	SortByName:    "name",
	SortByCourse:  "course",
	SortByAge:     "age",
	SortByAddress: "address",
}

// ErrInvalidSort is returned by ParseSort for anything that is not
// "<field>:<direction>" with a known field and direction.
var ErrInvalidSort = errors.New("invalid sortBy: expected <name|course|age|address>:<asc|desc>")

// Sort is an optional ordering. The zero value means default order (id).
type Sort struct {
	Field     SortField     `validate:"omitempty,oneof=name course age address"`
	Direction SortDirection `validate:"omitempty,oneof=asc desc"`
}

// IsZero reports whether no explicit ordering was requested.
func (s Sort) IsZero() bool { return s.Field == "" }

// ParseSort parses a sortBy value such as "age:desc". Matching is case
// insensitive. An empty string yields the zero Sort.
func ParseSort(raw string) (Sort, error) {
	if raw == "" {
		return Sort{}, nil
	}
	field, dir, ok := strings.Cut(raw, ":")
	if !ok {
		return Sort{}, ErrInvalidSort
	}
	s := Sort{
		Field:     SortField(strings.ToLower(field)),
		Direction: SortDirection(strings.ToLower(dir)),
	}
	if _, known := sortColumns[s.Field]; !known {
		return Sort{}, ErrInvalidSort
	}
	if s.Direction != SortAsc && s.Direction != SortDesc {
		return Sort{}, ErrInvalidSort
	}
	return s, nil
}

// ListParams selects one page of students.
type ListParams struct {
	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1"`
	// Course keeps records whose course equals it, ignoring case.
	Course string
	// Query keeps records whose name or email contains it, ignoring case.
	Query string
	Sort  Sort
}

// Offset is the number of rows skipped before the page starts. Callers
// must reject params for which OffsetOverflows is true.
func (p ListParams) Offset() int { return (p.Page - 1) * p.PageSize }

// OffsetOverflows reports whether (Page-1)*PageSize does not fit in an int.
func (p ListParams) OffsetOverflows() bool {
	return p.Page > 1 && p.PageSize > 0 && p.Page-1 > math.MaxInt/p.PageSize
}

// TotalPages is ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Placeholder renders the n-th (1-based) bind parameter of a query.
type Placeholder func(n int) string

// Question is the SQLite placeholder style.
func Question(int) string { return "?" }

// Dollar is the PostgreSQL placeholder style.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// ListQuery holds the two statements needed to serve a list request.
type ListQuery struct {
	Select     string
	SelectArgs []any
	Count      string
	CountArgs  []any
}

const studentColumns = "id, name, email, course, address, age"

// BuildListQuery composes the filtered, sorted and paginated SELECT and
// the matching COUNT for p. The course filter and the text search are
// ANDed; pagination applies to the sorted result only.
func BuildListQuery(p ListParams, ph Placeholder) ListQuery {
	var where []string
	var args []any

	if p.Course != "" {
		args = append(args, p.Course)
		where = append(where, "LOWER(course) = LOWER("+ph(len(args))+")")
	}
	if p.Query != "" {
		pattern := "%" + escapeLike(p.Query) + "%"
		args = append(args, pattern)
		namePh := ph(len(args))
		args = append(args, pattern)
		emailPh := ph(len(args))
		where = append(where, fmt.Sprintf(
			`(LOWER(name) LIKE LOWER(%s) ESCAPE '\' OR LOWER(email) LIKE LOWER(%s) ESCAPE '\')`, namePh, emailPh))
	}

	filter := ""
	if len(where) > 0 {
		filter = " WHERE " + strings.Join(where, " AND ")
	}

	order := " ORDER BY id ASC"
	if !p.Sort.IsZero() {
		dir := "ASC"
		if p.Sort.Direction == SortDesc {
			dir = "DESC"
		}
		// id breaks ties so pages never overlap.
		order = " ORDER BY " + sortColumns[p.Sort.Field] + " " + dir + ", id ASC"
	}

	countArgs := append([]any(nil), args...)

	args = append(args, p.PageSize)
	limitPh := ph(len(args))
	args = append(args, p.Offset())
	offsetPh := ph(len(args))

	return ListQuery{
		Select:     "SELECT " + studentColumns + " FROM students" + filter + order + " LIMIT " + limitPh + " OFFSET " + offsetPh,
		SelectArgs: args,
		Count:      "SELECT COUNT(*) FROM students" + filter,
		CountArgs:  countArgs,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
