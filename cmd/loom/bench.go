package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/runtime"
	"github.com/vango-dev/loom/pkg/vdom"
)

type benchConfig struct {
	Depth   int
	Width   int
	Updates int
	Save    bool
}

type benchResult struct {
	Nodes    int
	Leaves   int
	Mount    time.Duration
	Total    time.Duration
	Renders  int
	Patches  int
	Mismatch int
}

func benchCmd(opts *options) *cobra.Command {
	var bc benchConfig

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Render a fan-out tree under repeated updates",
		Long: `Mount a tree of branch components, depth levels deep with width
children each, whose leaves all read one signal. Every update writes the
signal from its own loop task and waits for the commit.

Examples:
  loom bench
  loom bench --depth=4 --width=5 --updates=200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if bc.Depth < 0 || bc.Width < 1 || bc.Updates < 1 {
				return fmt.Errorf("bench: depth must be >= 0, width and updates >= 1")
			}

			s := e.newSession("bench")
			defer s.Close()

			res, err := runBench(s, bc)
			if err != nil {
				return err
			}
			p := s.recorder.Finish()

			fmt.Fprintln(e.out, titleStyle.Render("bench"))
			fmt.Fprintln(e.out, field("Tree", fmt.Sprintf("%d nodes, %d leaves", res.Nodes, res.Leaves)))
			fmt.Fprintln(e.out, field("Mount", res.Mount.Round(time.Microsecond)))
			fmt.Fprintln(e.out, field("Updates", bc.Updates))
			fmt.Fprintln(e.out, field("Total", res.Total.Round(time.Microsecond)))
			fmt.Fprintln(e.out, field("Per update", (res.Total/time.Duration(bc.Updates)).Round(time.Microsecond)))
			fmt.Fprintln(e.out, field("Renders", res.Renders))
			fmt.Fprintln(e.out, field("Host patches", res.Patches))
			if res.Mismatch > 0 {
				failure(e.out, "%d leaves show a stale value", res.Mismatch)
			} else {
				success(e.out, "every leaf shows the last update")
			}

			if bc.Save {
				return saveProfile(commandContext(cmd), e, p)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&bc.Depth, "depth", 3, "Levels below the root")
	cmd.Flags().IntVar(&bc.Width, "width", 4, "Children per branch")
	cmd.Flags().IntVar(&bc.Updates, "updates", 50, "Number of signal writes")
	cmd.Flags().BoolVar(&bc.Save, "save", false, "Write the profile to the profile store")

	return cmd
}

// fanOut defines a branch component that embeds width copies of itself
// until depth is reached. Leaves render the tick.
func fanOut(depth, width int, tick *reactive.Signal[int]) *runtime.Definition {
	var branch *runtime.Definition
	branch = runtime.Define("branch", func(*runtime.Node) runtime.RenderFunc {
		return func(ctx *runtime.RenderContext) (runtime.OutputNode, error) {
			level := ctx.Props()["level"].(int)
			if level >= depth {
				return vdom.NewBlock(vdom.Span(vdom.Class("leaf"), vdom.Textf("%d", tick.Get()))), nil
			}
			children := make([]*vdom.VNode, width)
			for i := range children {
				children[i] = vdom.Embed(ctx.Child(strconv.Itoa(i), branch, runtime.Props{"level": level + 1}))
			}
			return vdom.NewBlock(vdom.Div(children)), nil
		}
	})
	return branch
}

func runBench(s *session, bc benchConfig) (benchResult, error) {
	var res benchResult
	for level, n := 0, 1; level <= bc.Depth; level++ {
		res.Nodes += n
		res.Leaves = n
		n *= bc.Width
	}

	tick := reactive.NewSignal(s.App.Graph(), 0)
	root := fanOut(bc.Depth, bc.Width, tick)

	start := time.Now()
	if err := s.Mount(root, runtime.Props{"level": 0}); err != nil {
		return res, err
	}
	res.Mount = time.Since(start)
	s.Doc.TakePatches()

	start = time.Now()
	for i := 1; i <= bc.Updates; i++ {
		if err := s.Do(func() { tick.Set(i) }); err != nil {
			return res, err
		}
	}
	res.Total = time.Since(start)
	res.Patches = len(s.Doc.TakePatches())

	for _, c := range s.recorder.Finish().Components {
		res.Renders += c.Renders
	}

	want := strconv.Itoa(bc.Updates)
	var walk func(el *vdom.Element)
	walk = func(el *vdom.Element) {
		if v, ok := el.Attr("class"); ok && v == "leaf" && el.TextContent() != want {
			res.Mismatch++
		}
		for _, c := range el.Children() {
			walk(c)
		}
	}
	walk(s.Doc.Body())
	return res, nil
}
