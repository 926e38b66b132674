package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CxGroup is a bounded worker group tied to a context; the first failing task
// cancels the rest.
type CxGroup struct {
	group *errgroup.Group
	ctx   context.Context
}

func NewCGroupWithLimit(ctx context.Context, limit int) *CxGroup {
	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	return &CxGroup{group: group, ctx: groupCtx}
}

func (g *CxGroup) Ctx() context.Context {
	return g.ctx
}

func (g *CxGroup) Add(f func(ctx context.Context) error) {
	g.group.Go(func() error {
		return f(g.ctx)
	})
}

// Block waits for all scheduled tasks and returns the first error.
func (g *CxGroup) Block() error {
	return g.group.Wait()
}
