package main

import (
	stderrors "errors"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/async"
	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/runtime"
	"github.com/vango-dev/loom/pkg/vdom"
)

// scenario is a built-in simulation. build returns the root component and
// a driver that exercises the mounted tree and checks the result.
type scenario struct {
	name    string
	summary string
	build   func(s *session, steps int) (*runtime.Definition, func() error)
}

var scenarios = map[string]scenario{
	"counter": {
		name:    "counter",
		summary: "click a button bound to a signal and check every commit",
		build:   buildCounter,
	},
	"race": {
		name:    "race",
		summary: "update props twice while a child hook is pending; only the latest commits",
		build:   buildRace,
	},
	"error": {
		name:    "error",
		summary: "a child render fails and the nearest error handler renders a fallback",
		build:   buildError,
	},
	"list": {
		name:    "list",
		summary: "reverse a keyed list of components and check host nodes are moved, not rebuilt",
		build:   buildList,
	},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupScenario(name string) (scenario, error) {
	sc, ok := scenarios[name]
	if !ok {
		return scenario{}, errors.New("L200").
			WithDetail(fmt.Sprintf("No scenario named %q.", name)).
			WithSuggestion("Available scenarios: " + fmt.Sprint(scenarioNames()))
	}
	return sc, nil
}

func buildCounter(s *session, steps int) (*runtime.Definition, func() error) {
	def := runtime.Define("counter", func(n *runtime.Node) runtime.RenderFunc {
		count := reactive.NewSignal(n.Graph(), 0)
		inc := func() { count.Update(func(v int) int { return v + 1 }) }
		return func(*runtime.RenderContext) (runtime.OutputNode, error) {
			return vdom.NewBlock(vdom.Div(
				vdom.Span(vdom.ID("count"), vdom.Textf("%d", count.Get())),
				vdom.Button(vdom.ID("inc"), vdom.OnClick(inc), "+1"),
			)), nil
		}
	})

	return def, func() error {
		for i := 1; i <= steps; i++ {
			if err := s.Click("inc"); err != nil {
				return err
			}
			if err := s.ExpectText("count", strconv.Itoa(i)); err != nil {
				return err
			}
		}
		return nil
	}
}

func buildRace(s *session, steps int) (*runtime.Definition, func() error) {
	var (
		pending []*async.Future
		value   *reactive.Signal[int]
	)
	leaf := runtime.Define("leaf", func(n *runtime.Node) runtime.RenderFunc {
		n.OnWillUpdateProps(func(runtime.Props) *async.Future {
			f := async.NewFuture()
			pending = append(pending, f)
			return f
		})
		return func(ctx *runtime.RenderContext) (runtime.OutputNode, error) {
			return vdom.NewBlock(vdom.Span(vdom.ID("value"), vdom.Textf("%v", ctx.Props()["v"]))), nil
		}
	})
	def := runtime.Define("race", func(n *runtime.Node) runtime.RenderFunc {
		value = reactive.NewSignal(n.Graph(), 0)
		return func(ctx *runtime.RenderContext) (runtime.OutputNode, error) {
			return vdom.NewBlock(vdom.Div(
				vdom.Embed(ctx.Child("leaf", leaf, runtime.Props{"v": value.Get()})),
			)), nil
		}
	})

	return def, func() error {
		updates := max(steps, 2)
		for i := 1; i <= updates; i++ {
			if err := s.Do(func() { value.Set(i) }); err != nil {
				return err
			}
		}
		if len(pending) != updates {
			return fmt.Errorf("expected %d suspended hooks, got %d", updates, len(pending))
		}

		// Settle the stale hooks first. None of them may reach the document.
		for _, f := range pending[:updates-1] {
			if err := s.Do(func() { f.Resolve(nil) }); err != nil {
				return err
			}
			if err := s.ExpectText("value", "0"); err != nil {
				return fmt.Errorf("stale update committed: %w", err)
			}
		}
		if err := s.Do(func() { pending[updates-1].Resolve(nil) }); err != nil {
			return err
		}
		return s.ExpectText("value", strconv.Itoa(updates))
	}
}

var errWidget = stderrors.New("widget exploded")

func buildError(s *session, _ int) (*runtime.Definition, func() error) {
	var caught error
	widget := runtime.Define("widget", func(n *runtime.Node) runtime.RenderFunc {
		return func(ctx *runtime.RenderContext) (runtime.OutputNode, error) {
			if ctx.Props()["fail"] == true {
				return nil, errWidget
			}
			return vdom.NewBlock(vdom.P(vdom.ID("widget"), "widget ok")), nil
		}
	})
	def := runtime.Define("boundary", func(n *runtime.Node) runtime.RenderFunc {
		failed := reactive.NewSignal(n.Graph(), false)
		fail := reactive.NewSignal(n.Graph(), false)
		n.OnError(func(err error) error {
			caught = err
			failed.Set(true)
			return nil
		})
		return func(ctx *runtime.RenderContext) (runtime.OutputNode, error) {
			if failed.Get() {
				return vdom.NewBlock(vdom.P(vdom.ID("fallback"), "recovered")), nil
			}
			return vdom.NewBlock(vdom.Div(
				vdom.Button(vdom.ID("break"), vdom.OnClick(func() { fail.Set(true) }), "break"),
				vdom.Embed(ctx.Child("widget", widget, runtime.Props{"fail": fail.Get()})),
			)), nil
		}
	})

	return def, func() error {
		if err := s.ExpectText("widget", "widget ok"); err != nil {
			return err
		}
		if err := s.Click("break"); err != nil {
			return err
		}
		if !stderrors.Is(caught, errWidget) {
			return fmt.Errorf("error handler received %v", caught)
		}
		if s.App.Err() != nil {
			return fmt.Errorf("a handled error tore the app down: %w", s.App.Err())
		}
		return s.ExpectText("fallback", "recovered")
	}
}

func buildList(s *session, steps int) (*runtime.Definition, func() error) {
	labels := make([]string, max(steps, 2))
	for i := range labels {
		labels[i] = fmt.Sprintf("item-%d", i)
	}

	item := runtime.Define("item", func(*runtime.Node) runtime.RenderFunc {
		return func(ctx *runtime.RenderContext) (runtime.OutputNode, error) {
			return vdom.NewBlock(vdom.Li(ctx.Props()["label"].(string))), nil
		}
	})
	def := runtime.Define("list", func(n *runtime.Node) runtime.RenderFunc {
		items := reactive.NewSignal(n.Graph(), labels)
		reverse := func() {
			items.Update(func(v []string) []string {
				out := slices.Clone(v)
				slices.Reverse(out)
				return out
			})
		}
		return func(ctx *runtime.RenderContext) (runtime.OutputNode, error) {
			return vdom.NewBlock(vdom.Div(
				vdom.Button(vdom.ID("reverse"), vdom.OnClick(reverse), "reverse"),
				vdom.Ul(vdom.ID("items"), vdom.Range(items.Get(), func(label string, _ int) *vdom.VNode {
					return vdom.Embed(ctx.Child(label, item, runtime.Props{"label": label}))
				})),
			)), nil
		}
	})

	return def, func() error {
		ul := s.Doc.GetElementByID("items")
		if ul == nil {
			return fmt.Errorf("list not rendered")
		}
		before := slices.Clone(ul.Children())
		if err := s.Click("reverse"); err != nil {
			return err
		}
		after := ul.Children()
		if len(after) != len(before) {
			return fmt.Errorf("expected %d items, got %d", len(before), len(after))
		}
		for i, el := range after {
			want := before[len(before)-1-i]
			if el != want {
				return fmt.Errorf("item %d: host node %s was rebuilt, expected %s", i, el.HID(), want.HID())
			}
			if el.TextContent() != labels[len(labels)-1-i] {
				return fmt.Errorf("item %d: expected %q, got %q", i, labels[len(labels)-1-i], el.TextContent())
			}
		}
		return nil
	}
}
