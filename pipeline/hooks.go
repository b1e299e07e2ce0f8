package pipeline

import "github.com/vixgo/conduit/domain/httperr"

// Hooks are optional observer callbacks fired around a pipeline run.
// Any of the three may be nil (no-op). Hooks observe; they never alter
// control flow.
type Hooks struct {
	// OnBegin fires once before the first middleware.
	OnBegin func(*Context)

	// OnEnd fires once after a run that no panic escaped.
	OnEnd func(*Context)

	// OnError fires once when a panic escapes the chain or the final
	// handler. OnEnd and OnError are mutually exclusive for a given run.
	OnError func(*Context, httperr.Error)
}

// IsZero reports whether no callbacks are set.
func (h Hooks) IsZero() bool {
	return h.OnBegin == nil && h.OnEnd == nil && h.OnError == nil
}

// MergeHooks combines many Hooks values into one.
//
// The merged OnBegin calls each input's OnBegin in list order; the merged
// OnEnd and OnError call theirs in reverse list order, mirroring scope-based
// acquire/release discipline (last registered, first torn down). Hooks that
// pair "start a span" in OnBegin with "close the span" in OnEnd can therefore
// be stacked in any order without corrupting nesting.
func MergeHooks(hs ...Hooks) Hooks {
	list := make([]Hooks, len(hs))
	copy(list, hs)

	return Hooks{
		OnBegin: func(c *Context) {
			for _, h := range list {
				if h.OnBegin != nil {
					h.OnBegin(c)
				}
			}
		},
		OnEnd: func(c *Context) {
			for i := len(list) - 1; i >= 0; i-- {
				if list[i].OnEnd != nil {
					list[i].OnEnd(c)
				}
			}
		},
		OnError: func(c *Context, err httperr.Error) {
			for i := len(list) - 1; i >= 0; i-- {
				if list[i].OnError != nil {
					list[i].OnError(c, err)
				}
			}
		},
	}
}
