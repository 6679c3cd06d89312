package goflow

import (
	"fmt"
	"io"
	"strings"
)

// PatternStream is a pull-based pipeline of PatternState instances.
// Each stage owns a goroutine and closes its outlet when upstream closes.
type PatternStream struct {
	Outlet chan PatternState
}

func NewPatternStream() *PatternStream {
	stream := &PatternStream{
		Outlet: make(chan PatternState),
	}
	return stream
}

// StreamPattern starts a stream that emits a copy of the given pattern.
func StreamPattern(p PatternState) *PatternStream {
	next := NewPatternStream()

	go func() {
		next.Outlet <- p.MakeCopy()
		next.Close()
	}()

	return next
}

func (stream *PatternStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *PatternStream) PushPattern(p PatternState) {
	stream.Outlet <- p.MakeCopy()
}

func (stream *PatternStream) PullPattern() PatternState {
	p := <-stream.Outlet
	return p
}

// PullAll drains this stream, reclaiming every pattern, and returns the count.
func (stream *PatternStream) PullAll() int {
	count := int(0)
	for p := range stream.Outlet {
		count++
		p.Reclaim()
	}
	return count
}

// Solve runs the flow search of the given kind on each pattern as it
// passes through. Patterns flow on regardless of whether a flow was
// found; a malformed measurement spec is a contract violation and panics.
func (stream *PatternStream) Solve(kind FlowKind) *PatternStream {
	next := &PatternStream{
		Outlet: make(chan PatternState, 1),
	}

	go func() {
		for p := range stream.Outlet {
			_, err := p.Solve(kind)
			if err != nil {
				panic(err)
			}
			next.Outlet <- p
		}
		next.Close()
	}()

	return next
}

func (stream *PatternStream) Print(
	out io.WriteCloser,
	opts PrintOpts) *PatternStream {

	next := &PatternStream{
		Outlet: make(chan PatternState, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for p := range stream.Outlet {
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
			}
			buf.WriteByte(',')

			count++
			fmt.Fprintf(&buf, "%06d,", count)
			p.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- p
		}
		out.Close()
		next.Close()
	}()

	return next
}

// AddPatternOpts modifies AddTo behavior.
type AddPatternOpts struct {
	AutoCloseTarget bool // close the target when the stream finishes
}

// AddTo forwards only the patterns the target did not already contain.
func (stream *PatternStream) AddTo(target FlowAdder, opts AddPatternOpts) *PatternStream {
	next := &PatternStream{
		Outlet: make(chan PatternState, 1),
	}

	go func() {
		for p := range stream.Outlet {
			wasAdded := target.TryAddPattern(p)
			if wasAdded {
				next.Outlet <- p
			} else {
				p.Reclaim()
			}
		}
		if opts.AutoCloseTarget {
			if closer, ok := target.(io.Closer); ok {
				closer.Close()
			}
		}
		next.Close()
	}()

	return next
}

// SelectFromCatalog streams the catalog entries matching the selector.
func SelectFromCatalog(cat Catalog, sel PatternSelector) *PatternStream {
	next := &PatternStream{
		Outlet: make(chan PatternState, 1),
	}

	onHit := make(chan PatternState, 4)

	go func() {
		cat.Select(sel, onHit)
		close(onHit)
	}()

	go func() {
		for p := range onHit {
			if sel.SelectsPattern(p) {
				next.Outlet <- p
			} else {
				p.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}

func (stream *PatternStream) SelectFromStream(sel PatternSelector) *PatternStream {
	next := &PatternStream{
		Outlet: make(chan PatternState, 1),
	}

	go func() {
		for p := range stream.Outlet {
			if sel.SelectsPattern(p) {
				next.Outlet <- p
			} else {
				p.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}
