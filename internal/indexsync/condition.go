package indexsync

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/storefrontbase/storefront/internal/storage"
)

// Conditions compiles and evaluates rule conditions. Programs are cached
// by expression.
type Conditions struct {
	env      *cel.Env
	prgCache map[string]cel.Program
	mu       sync.RWMutex
}

func NewConditions() (*Conditions, error) {
	env, err := cel.NewEnv(
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("before", cel.DynType),
		cel.Variable("id", cel.StringType),
		cel.Variable("collection", cel.StringType),
	)
	if err != nil {
		return nil, err
	}
	return &Conditions{env: env, prgCache: make(map[string]cel.Program)}, nil
}

// Compile checks expr and caches its program.
func (c *Conditions) Compile(expr string) error {
	_, err := c.program(expr)
	return err
}

// Match evaluates expr against the state after ch. An empty expression
// always matches.
func (c *Conditions) Match(expr string, ch Change) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := c.program(expr)
	if err != nil {
		return false, err
	}

	var before interface{}
	if ch.Before != nil {
		before = storage.PlainMap(ch.Before)
	}
	doc := storage.PlainMap(ch.After)
	if doc == nil {
		doc = map[string]interface{}{}
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"doc":        doc,
		"before":     before,
		"id":         ch.DocumentID,
		"collection": ch.Collection,
	})
	if err != nil {
		return false, fmt.Errorf("condition evaluation error: %w", err)
	}
	match, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition must return boolean, got %T", out.Value())
	}
	return match, nil
}

func (c *Conditions) program(expr string) (cel.Program, error) {
	c.mu.RLock()
	prg, ok := c.prgCache[expr]
	c.mu.RUnlock()
	if ok {
		return prg, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prg, ok := c.prgCache[expr]; ok {
		return prg, nil
	}

	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", expr, issues.Err())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, err
	}
	c.prgCache[expr] = prg
	return prg, nil
}
