package authz

import (
	"strings"
)

// DefaultUserID is assumed whenever a request does not identify its user.
const DefaultUserID = "guest"

type Principal interface {
	UserID() string
}

type user struct {
	id string
}

func (u user) UserID() string {
	return u.id
}

func New(id string) Principal {
	if id == "" {
		id = DefaultUserID
	}
	return user{id: id}
}

type Partial interface {
	SQL() (string, []any)
}

var NilPartial Partial = nilPartial{}

type nilPartial struct{}

func (p nilPartial) SQL() (string, []any) {
	return "", nil
}

type filterPartial struct {
	filterBy []string
	values   []any
}

func (p filterPartial) SQL() (string, []any) {
	if len(p.filterBy) == 0 {
		return "", nil
	}
	if len(p.filterBy) != len(p.values) {
		return "", nil
	}
	clauses := make([]string, 0, len(p.filterBy))
	args := make([]any, 0, len(p.values))
	for i, field := range p.filterBy {
		clauses = append(clauses, field+" = ?")
		args = append(args, p.values[i])
	}
	return "(" + strings.Join(clauses, " AND ") + ")", args
}

func FilterBy(key string, value any) filterPartial {
	return filterPartial{filterBy: []string{key}, values: []any{value}}
}

func (p filterPartial) And(key string, value any) Partial {
	p.filterBy = append(p.filterBy, key)
	p.values = append(p.values, value)
	return p
}
