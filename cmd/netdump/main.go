// netdump: print the structure stored in a saved model file, and optionally
// re-validate a textual configuration against it.
//
// Usage:
//
//	netdump --model=mnist.model
//	netdump --model=mnist.model --replay=mnist.conf
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/taposh/cxxnet/nnet"
	"github.com/taposh/cxxnet/utils"
)

var (
	modelPath  = flag.String("model", "", "Saved structure file")
	replayPath = flag.String("replay", "", "Configuration file to validate against the structure (optional)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *modelPath == "" {
		fmt.Fprintln(os.Stderr, "netdump: --model is required")
		os.Exit(2)
	}

	nc := nnet.New()
	f, err := os.Open(*modelPath)
	if err != nil {
		fatal("%v", err)
	}
	if err := nc.LoadStructure(f); err != nil {
		f.Close()
		fatal("load %s: %v", *modelPath, err)
	}
	f.Close()

	fmt.Printf("Structure %s\n", *modelPath)
	fmt.Print(nc.Graph.Summary())
	if order, err := nc.Graph.TopoOrder(); err == nil {
		fmt.Printf("  node order: %v\n", order)
	}

	if *replayPath != "" {
		directives, err := utils.ReadConfFile(*replayPath)
		if err != nil {
			fatal("read configuration: %v", err)
		}
		if err := nc.Configure(directives); err != nil {
			fatal("replay %s: %v", *replayPath, err)
		}
		fmt.Printf("Replay OK: %s matches the saved structure\n", *replayPath)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "netdump: "+format+"\n", args...)
	os.Exit(1)
}
