package goflow

import "sync"

func NewCatalogContext() CatalogContext {
	ctx := &catalogContext{
		openCatalogs: make(map[Catalog]struct{}),
		closing:      make(chan struct{}),
		closed:       make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.closing
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

type catalogContext struct {
	mu           sync.Mutex
	openCount    sync.WaitGroup
	openCatalogs map[Catalog]struct{}
	closing      chan struct{}
	closed       chan struct{}
}

func (ctx *catalogContext) AttachCatalog(cat Catalog) {
	ctx.openCount.Add(1)
	ctx.mu.Lock()
	ctx.openCatalogs[cat] = struct{}{}
	ctx.mu.Unlock()
}

func (ctx *catalogContext) DetachCatalog(cat Catalog) {
	ctx.mu.Lock()
	if _, exists := ctx.openCatalogs[cat]; exists {
		delete(ctx.openCatalogs, cat)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

func (ctx *catalogContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *catalogContext) Close() {
	close(ctx.closing)
	ctx.mu.Lock()
	for cat := range ctx.openCatalogs {
		go cat.Close()
	}
	ctx.mu.Unlock()
}

// MaxSelectorVerts bounds pattern sizes accepted through selectors.
const MaxSelectorVerts = 255

// DefaultPatternSelector selects every stored pattern.
var DefaultPatternSelector = PatternSelector{
	Min: PatternInfo{
		NumVerts: 1,
	},
	Max: PatternInfo{
		NumVerts:   MaxSelectorVerts,
		NumEdges:   255,
		NumInputs:  MaxSelectorVerts,
		NumOutputs: MaxSelectorVerts,
		NumPauli:   MaxSelectorVerts,
	},
}

// SelectsPattern is a convenience function used to see if a pattern is
// selected according to a PatternSelector.
func (sel *PatternSelector) SelectsPattern(p PatternState) bool {
	info := p.GetInfo()
	if info.NumVerts < sel.Min.NumVerts || info.NumEdges < sel.Min.NumEdges ||
		info.NumInputs < sel.Min.NumInputs || info.NumOutputs < sel.Min.NumOutputs ||
		info.NumPauli < sel.Min.NumPauli {
		return false
	}
	if info.NumVerts > sel.Max.NumVerts || info.NumEdges > sel.Max.NumEdges ||
		info.NumInputs > sel.Max.NumInputs || info.NumOutputs > sel.Max.NumOutputs ||
		info.NumPauli > sel.Max.NumPauli {
		return false
	}
	if sel.RequireFlow && p.Flow() == nil {
		return false
	}
	if sel.RequireAbsent && p.Flow() != nil {
		return false
	}
	return true
}
