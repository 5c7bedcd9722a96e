package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"github.com/delaneyj/reactnotify/notify"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey      = "iters"
	cpuProfileKey = "cpuprofile"
)

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure notification propagation",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Mutations per scenario",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
				Value: "default.pgo",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(cpuProfileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint(itersKey))
	log.Printf("warming up")
	benchmarkProperties(iters, false)

	benchmarkProperties(iters, true)
	benchmarkReferences(iters, true)
	benchmarkCollections(iters, true)
	return nil
}

type scenario struct {
	// mutate performs one measured mutation.
	mutate func(i int)
	// delivered reports the notifications seen so far.
	delivered func() int64
}

func render(title string, iters int, build func(w, h int) scenario, shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "notifications/s"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})
			s := build(w, h)

			var total time.Duration
			for i := 0; i < iters; i++ {
				start := time.Now()
				s.mutate(i)
				elapsed := time.Since(start)
				total += elapsed
				tach.AddTime(elapsed)
			}

			rate := int64(0)
			if total > 0 {
				rate = int64(float64(s.delivered()) / total.Seconds())
			}
			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
					humanize.Comma(rate),
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkProperties raises w independent chains of h local properties off
// one source.
func benchmarkProperties(iters int, shouldRender bool) {
	render("Local properties", iters, func(w, h int) scenario {
		n := notify.NewNotifier(notify.NewSystem())
		for i := 0; i < w; i++ {
			prev := "Source"
			for j := 0; j < h; j++ {
				name := fmt.Sprintf("P%d_%d", i, j)
				n.PropertyOf(name).DependsOnProperty(prev)
				prev = name
			}
		}
		var count atomic.Int64
		n.OnPropertyChanged(func(any, string) { count.Add(1) })
		return scenario{
			mutate:    func(i int) { n.SetValue("Source", i+1) },
			delivered: count.Load,
		}
	}, shouldRender)
}

// benchmarkReferences builds w chains of h notifiers, each observing the
// previous one through a reference property.
func benchmarkReferences(iters int, shouldRender bool) {
	render("Referenced properties", iters, func(w, h int) scenario {
		sys := notify.NewSystem()
		src := notify.NewNotifier(sys)
		var count atomic.Int64
		for i := 0; i < w; i++ {
			prev := src
			for j := 0; j < h; j++ {
				n := notify.NewNotifier(sys)
				n.PropertyOf("Value").DependsOnReferenceProperty("Upstream", "Value")
				n.SetValue("Upstream", prev)
				prev = n
			}
			prev.OnPropertyChanged(func(any, string) { count.Add(1) })
		}
		return scenario{
			mutate:    func(i int) { src.SetValue("Value", i+1) },
			delivered: count.Load,
		}
	}, shouldRender)
}

// benchmarkCollections fills w collections that an owner depends on with h
// items, then clears them.
func benchmarkCollections(iters int, shouldRender bool) {
	render("Collections", iters, func(w, h int) scenario {
		sys := notify.NewSystem()
		owner := notify.NewNotifier(sys)
		owner.PropertyOf("Size").DependsOnReferenceProperty("Items", "Count")

		var count atomic.Int64
		owner.OnPropertyChanged(func(any, string) { count.Add(1) })

		items := make([]int, h)
		for i := range items {
			items[i] = i
		}
		collections := make([]*notify.Collection[int], w)
		for i := range collections {
			collections[i] = notify.NewCollection[int](sys)
			collections[i].OnCollectionChanged(func(any, notify.CollectionChange) { count.Add(1) })
		}
		return scenario{
			mutate: func(int) {
				for _, c := range collections {
					owner.SetValue("Items", c)
					if err := c.AddRange(items); err != nil {
						log.Panic(err)
					}
					if err := c.Clear(); err != nil {
						log.Panic(err)
					}
				}
			},
			delivered: count.Load,
		}
	}, shouldRender)
}
