// Package databasetest provides an in-memory database.Client for tests.
package databasetest

import (
	"context"
	"strings"
	"sync"

	"mysql-mcp-gateway/internal/model"
)

// Call records one Execute invocation.
type Call struct {
	Query string
	Args  []interface{}
}

// Responder answers a query. Returning (nil, nil) falls through to the next responder.
type Responder func(query string, args []interface{}) ([]model.Row, error)

// FakeClient is a scripted database.Client that records every call.
type FakeClient struct {
	mu         sync.Mutex
	responders []Responder
	calls      []Call
}

// NewFakeClient creates an empty fake; unmatched queries return no rows.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// On answers queries containing substr (case-insensitive) with rows or err.
func (f *FakeClient) On(substr string, rows []model.Row, err error) *FakeClient {
	needle := strings.ToUpper(substr)
	return f.Respond(func(query string, _ []interface{}) ([]model.Row, error) {
		if !strings.Contains(strings.ToUpper(query), needle) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if rows == nil {
			return []model.Row{}, nil
		}
		return rows, nil
	})
}

// Respond adds a custom responder. Responders are consulted in order.
func (f *FakeClient) Respond(r Responder) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders = append(f.responders, r)
	return f
}

func (f *FakeClient) Execute(_ context.Context, query string, args ...interface{}) ([]model.Row, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Query: query, Args: args})
	responders := append([]Responder(nil), f.responders...)
	f.mu.Unlock()

	for _, r := range responders {
		rows, err := r(query, args)
		if err != nil {
			return nil, err
		}
		if rows != nil {
			return rows, nil
		}
	}
	return []model.Row{}, nil
}

// Calls returns a copy of the recorded calls.
func (f *FakeClient) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many calls have been made.
func (f *FakeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Row is shorthand for model.NewRow with alternating column/value pairs.
func Row(pairs ...interface{}) model.Row {
	var r model.Row
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}
