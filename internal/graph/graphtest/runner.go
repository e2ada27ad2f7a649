// Package graphtest provides a scripted graph.Runner for repository tests.
package graphtest

import (
	"context"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Call struct {
	Query  string
	Params map[string]any
}

// Runner records every query and answers with the first matching reply.
type Runner struct {
	mu      sync.Mutex
	calls   []Call
	replies []reply
}

type reply struct {
	contains string
	result   *neo4j.EagerResult
	err      error
}

func New() *Runner { return &Runner{} }

// On registers a result for queries containing the fragment.
func (r *Runner) On(fragment string, result *neo4j.EagerResult) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply{contains: fragment, result: result})
	return r
}

func (r *Runner) Fail(fragment string, err error) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply{contains: fragment, err: err})
	return r
}

func (r *Runner) Run(_ context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Query: query, Params: params})
	for _, rp := range r.replies {
		if strings.Contains(query, rp.contains) {
			if rp.err != nil {
				return nil, rp.err
			}
			return rp.result, nil
		}
	}
	return &neo4j.EagerResult{}, nil
}

func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *Runner) Last() Call {
	calls := r.Calls()
	if len(calls) == 0 {
		return Call{}
	}
	return calls[len(calls)-1]
}

// Result builds an EagerResult from rows of values in key order.
func Result(keys []string, rows ...[]any) *neo4j.EagerResult {
	res := &neo4j.EagerResult{Keys: keys}
	for _, row := range rows {
		res.Records = append(res.Records, &neo4j.Record{Keys: keys, Values: row})
	}
	return res
}

func Node(label string, props map[string]any) neo4j.Node {
	return neo4j.Node{Labels: []string{label}, Props: props}
}
