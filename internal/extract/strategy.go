package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Strategy is one way of turning document bytes into text.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, data []byte) (Result, error)
}

// Chain tries strategies in order and returns the first result with
// text. A strategy that succeeds without text does not stop the chain;
// if no strategy finds text, the first empty success is returned so the
// caller sees an empty document rather than an error.
type Chain []Strategy

// Name returns the name of the first strategy in the chain.
func (c Chain) Name() string {
	if len(c) == 0 {
		return "chain"
	}
	return c[0].Name()
}

// Extract runs each strategy until one yields text. When all fail the
// errors of every strategy are joined.
func (c Chain) Extract(ctx context.Context, data []byte) (Result, error) {
	if len(c) == 0 {
		return Result{}, errors.New("no extraction strategy configured")
	}
	var (
		errs  []error
		empty *Result
	)
	for _, s := range c {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := safeExtract(ctx, s, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if res.Strategy == "" {
			res.Strategy = s.Name()
		}
		if strings.TrimSpace(res.Text) != "" {
			return res, nil
		}
		if empty == nil {
			empty = &res
		}
	}
	if empty != nil {
		return *empty, nil
	}
	return Result{}, errors.Join(errs...)
}

// safeExtract turns a panicking strategy into an error.
func safeExtract(ctx context.Context, s Strategy, data []byte) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return s.Extract(ctx, data)
}
