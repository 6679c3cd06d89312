package main

import (
	"flag"
	"os"
	"strings"

	"github.com/plan-systems/klog"

	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow"
)

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	expr := flag.String("expr", "", "solve a single pattern expression and exit")
	kindLabel := flag.String("kind", "gflow", "flow kind to solve: flow, gflow, pflow")

	flag.Parse()

	if len(*expr) > 0 {
		if err := solveExpr(*expr, *kindLabel); err != nil {
			klog.Fatal(err)
		}
	} else {
		pathname := flag.Arg(0)
		go_gpython(pathname)
	}

	klog.Flush()
}

func solveExpr(expr, kindLabel string) error {
	kind, err := goflow.ParseFlowKind(kindLabel)
	if err != nil {
		return err
	}
	p, err := libflow.NewPatternFromExpr(expr)
	if err != nil {
		return err
	}
	defer p.Reclaim()

	if _, err = p.Solve(kind); err != nil {
		return err
	}

	out := strings.Builder{}
	p.WriteAsString(&out, goflow.PrintOpts{
		Graph:      true,
		Flow:       true,
		Violations: true,
	})
	out.WriteByte('\n')
	os.Stdout.WriteString(out.String())
	return nil
}
