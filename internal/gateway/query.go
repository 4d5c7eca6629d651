package gateway

import (
	"fmt"
	"strings"

	"estate_marketplace_backend/internal/common"

	"gorm.io/gorm"
)

type queryOp int

const (
	opEqual queryOp = iota
	opNotEqual
	opIn
	opSearch
	opGreaterThanEqual
	opLessThanEqual
	opAnd
	opOr
	opOrderAsc
	opOrderDesc
	opLimit
	opOffset
)

// Query is one node of a document query: a filter, a logical group, an ordering
// or a page bound. Top-level filters passed to a collection are combined with AND.
type Query struct {
	op       queryOp
	field    string
	value    interface{}
	values   []interface{}
	children []Query
	n        int
}

func Equal(field string, value interface{}) Query {
	return Query{op: opEqual, field: field, value: value}
}

func NotEqual(field string, value interface{}) Query {
	return Query{op: opNotEqual, field: field, value: value}
}

// In matches documents whose field equals any of values. An empty list matches nothing.
func In(field string, values ...interface{}) Query {
	return Query{op: opIn, field: field, values: values}
}

// Search is a case-insensitive substring match on a text field.
func Search(field, term string) Query {
	return Query{op: opSearch, field: field, value: term}
}

func GreaterThanEqual(field string, value interface{}) Query {
	return Query{op: opGreaterThanEqual, field: field, value: value}
}

func LessThanEqual(field string, value interface{}) Query {
	return Query{op: opLessThanEqual, field: field, value: value}
}

func And(queries ...Query) Query {
	return Query{op: opAnd, children: queries}
}

func Or(queries ...Query) Query {
	return Query{op: opOr, children: queries}
}

func OrderAsc(field string) Query {
	return Query{op: opOrderAsc, field: field}
}

func OrderDesc(field string) Query {
	return Query{op: opOrderDesc, field: field}
}

func Limit(n int) Query {
	return Query{op: opLimit, n: n}
}

func Offset(n int) Query {
	return Query{op: opOffset, n: n}
}

func (q Query) isFilter() bool {
	switch q.op {
	case opOrderAsc, opOrderDesc, opLimit, opOffset:
		return false
	}
	return true
}

// Fields is the set of queryable columns of a collection.
type Fields map[string]struct{}

// NewFields returns a field set containing the base document columns plus cols.
func NewFields(cols ...string) Fields {
	f := Fields{"id": {}, "created_at": {}, "updated_at": {}}
	for _, c := range cols {
		f[c] = struct{}{}
	}
	return f
}

func (f Fields) check(field string) error {
	if _, ok := f[field]; !ok {
		return common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown query field %q.", field))
	}
	return nil
}

// compile renders a filter node as a SQL expression with positional arguments.
func (f Fields) compile(q Query) (string, []interface{}, error) {
	switch q.op {
	case opAnd, opOr:
		if len(q.children) == 0 {
			return "1 = 1", nil, nil
		}
		joiner := " AND "
		if q.op == opOr {
			joiner = " OR "
		}
		parts := make([]string, 0, len(q.children))
		var args []interface{}
		for _, child := range q.children {
			if !child.isFilter() {
				return "", nil, common.ErrBadRequest.WithDetails("Ordering and paging cannot be nested in a logical query.")
			}
			sql, childArgs, err := f.compile(child)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+sql+")")
			args = append(args, childArgs...)
		}
		return strings.Join(parts, joiner), args, nil
	}

	if err := f.check(q.field); err != nil {
		return "", nil, err
	}
	switch q.op {
	case opEqual:
		if q.value == nil {
			return q.field + " IS NULL", nil, nil
		}
		return q.field + " = ?", []interface{}{q.value}, nil
	case opNotEqual:
		if q.value == nil {
			return q.field + " IS NOT NULL", nil, nil
		}
		return q.field + " <> ?", []interface{}{q.value}, nil
	case opIn:
		if len(q.values) == 0 {
			return "1 = 0", nil, nil
		}
		return q.field + " IN ?", []interface{}{q.values}, nil
	case opSearch:
		term, _ := q.value.(string)
		return "LOWER(" + q.field + ") LIKE ?", []interface{}{"%" + strings.ToLower(term) + "%"}, nil
	case opGreaterThanEqual:
		return q.field + " >= ?", []interface{}{q.value}, nil
	case opLessThanEqual:
		return q.field + " <= ?", []interface{}{q.value}, nil
	}
	return "", nil, common.ErrBadRequest.WithDetails("Unsupported query operation.")
}

// apply adds filters, and unless filtersOnly is set, ordering and paging to db.
func (f Fields) apply(db *gorm.DB, filtersOnly bool, queries ...Query) (*gorm.DB, error) {
	for _, q := range queries {
		switch q.op {
		case opOrderAsc, opOrderDesc:
			if filtersOnly {
				continue
			}
			if err := f.check(q.field); err != nil {
				return nil, err
			}
			dir := " ASC"
			if q.op == opOrderDesc {
				dir = " DESC"
			}
			db = db.Order(q.field + dir)
		case opLimit:
			if !filtersOnly && q.n > 0 {
				db = db.Limit(q.n)
			}
		case opOffset:
			if !filtersOnly && q.n > 0 {
				db = db.Offset(q.n)
			}
		default:
			sql, args, err := f.compile(q)
			if err != nil {
				return nil, err
			}
			db = db.Where(sql, args...)
		}
	}
	return db, nil
}
