// Package evalset runs YAML suites of conversations through the safety
// pipeline and checks that each one is routed as expected.
package evalset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/sprouts/internal/ask"
	"github.com/ziadkadry99/sprouts/internal/llm"
	"github.com/ziadkadry99/sprouts/internal/progress"
)

// Case is one conversation and the route it must take.
type Case struct {
	Name     string           `yaml:"name"`
	Messages []llm.Message    `yaml:"messages"`
	Expect   ask.ResponseType `yaml:"expect"`
}

// Suite is a list of cases loaded from a YAML file.
type Suite struct {
	Cases []Case `yaml:"cases"`
}

// Asker runs a conversation through the safety pipeline.
type Asker interface {
	Handle(ctx context.Context, endpoint string, req ask.Request) (*ask.Response, error)
}

// Load reads and validates a suite file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite: %w", err)
	}
	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return suite, nil
}

// Parse decodes and validates a suite. Unknown keys are rejected.
func Parse(data []byte) (*Suite, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var suite Suite
	if err := dec.Decode(&suite); err != nil {
		return nil, fmt.Errorf("parsing suite: %w", err)
	}
	if len(suite.Cases) == 0 {
		return nil, errors.New("suite has no cases")
	}

	seen := make(map[string]bool, len(suite.Cases))
	for i, c := range suite.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("case %d: name is required", i+1)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("case %q: duplicate name", c.Name)
		}
		seen[c.Name] = true

		if c.Expect != ask.TypeAnswer && c.Expect != ask.TypeClarify {
			return nil, fmt.Errorf("case %q: expect must be answer or clarify, got %q", c.Name, c.Expect)
		}
		if len(c.Messages) == 0 {
			return nil, fmt.Errorf("case %q: messages are required", c.Name)
		}
		if err := (ask.Request{Messages: c.Messages}).Validate(); err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
	}
	return &suite, nil
}

// Result is the outcome of one case.
type Result struct {
	Name     string           `json:"name"`
	Expect   ask.ResponseType `json:"expect"`
	Got      ask.ResponseType `json:"got,omitempty"`
	Category string           `json:"category,omitempty"`
	Severity float64          `json:"severity"`
	Passed   bool             `json:"passed"`
	Error    string           `json:"error,omitempty"`
}

// Report summarizes a suite run.
type Report struct {
	Total   int      `json:"total"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Errored int      `json:"errored"`
	Results []Result `json:"results"`
}

// OK reports whether every case passed.
func (r Report) OK() bool {
	return r.Total > 0 && r.Passed == r.Total
}

// Run sends every case through asker in order. A failing case does not stop
// the run. Run returns early with ctx's error if ctx is cancelled.
func Run(ctx context.Context, asker Asker, suite *Suite, reporter progress.Reporter) (Report, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}

	report := Report{Total: len(suite.Cases), Results: make([]Result, 0, len(suite.Cases))}
	reporter.Start(len(suite.Cases))
	defer reporter.Finish()

	for i, c := range suite.Cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := Result{Name: c.Name, Expect: c.Expect}
		resp, err := asker.Handle(ctx, ask.EndpointEval, ask.Request{Messages: c.Messages})
		switch {
		case err != nil:
			res.Error = err.Error()
			report.Errored++
		default:
			res.Got = resp.Type
			res.Category = string(resp.Safety.Category)
			res.Severity = resp.Safety.Severity
			res.Passed = resp.Type == c.Expect
			if res.Passed {
				report.Passed++
			} else {
				report.Failed++
			}
		}

		report.Results = append(report.Results, res)
		reporter.Update(i+1, c.Name)
	}
	return report, nil
}
