// Package policy admits or blocks upstream model calls using an OPA rego policy.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

// Decisions returned by a policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document evaluated by the policy.
type Input struct {
	Operation string `json:"operation"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The module must declare package model_policy with decision and reason rules.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.model_policy"),
		rego.Module("model_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy at path, or DefaultPolicy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate returns the decision and reason for input.
// A policy that produces no decision allows the call.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return DecisionAllow, "unexpected return type", nil
	}
	decision, _ := doc["decision"].(string)
	reason, _ := doc["reason"].(string)
	if decision == "" {
		decision = DecisionAllow
	}
	return decision, reason, nil
}

// Check evaluates input and returns an error wrapping domain.ErrPolicyDenied
// when the call is blocked.
func (e *Engine) Check(ctx context.Context, input Input) error {
	decision, reason, err := e.Evaluate(ctx, input)
	if err != nil {
		return err
	}
	if decision == DecisionBlock {
		if reason == "" {
			reason = "blocked"
		}
		return fmt.Errorf("%w: %s", domain.ErrPolicyDenied, reason)
	}
	return nil
}

// DefaultPolicy caps the token budget a single call may request.
const DefaultPolicy = `
package model_policy

default decision := "allow"

default reason := ""

max_tokens_limit := 8192

over_budget if input.max_tokens > max_tokens_limit

decision := "block" if over_budget

reason := sprintf("max_tokens %d exceeds limit %d", [input.max_tokens, max_tokens_limit]) if over_budget
`
