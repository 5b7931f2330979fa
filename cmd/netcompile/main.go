// netcompile: compile a textual network configuration into a validated
// layer graph and optionally save its structure to a model file.
//
// Usage:
//
//	netcompile --conf=mnist.conf --out=mnist.model
//	netcompile --conf=mnist.yaml --format=yaml --v=2
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
	confPath = flag.String("conf", "", "Network configuration file")
	format   = flag.String("format", "conf", "Configuration format: conf, yaml")
	outPath  = flag.String("out", "", "Output structure file (optional)")
	check    = flag.Bool("check", true, "Diagnose unreachable nodes and cycles after compiling")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *confPath == "" {
		fmt.Fprintln(os.Stderr, "netcompile: --conf is required")
		os.Exit(2)
	}

	directives, err := readDirectives(*confPath, *format)
	if err != nil {
		fatal("read configuration: %v", err)
	}
	klog.V(1).Infof("read %d directives from %s", len(directives), *confPath)

	nc := nnet.New()
	if err := nc.Configure(directives); err != nil {
		fatal("%s: %v", *confPath, err)
	}

	fmt.Printf("Compiled %s\n", *confPath)
	fmt.Printf("  Updater: %s\n", nc.Overlay.UpdaterType)
	fmt.Printf("  Default settings: %d\n", len(nc.Overlay.Defaults))
	fmt.Print(nc.Graph.Summary())

	if *check {
		if err := nc.Graph.CheckTopology(); err != nil {
			fatal("topology check: %v", err)
		}
		fmt.Println("Topology OK")
	}

	if *outPath != "" {
		if err := saveStructure(nc, *outPath); err != nil {
			fatal("save structure: %v", err)
		}
		fmt.Printf("Structure saved to %s\n", *outPath)
	}
}

func readDirectives(path, format string) ([]nnet.Directive, error) {
	switch format {
	case "conf":
		return utils.ReadConfFile(path)
	case "yaml":
		return utils.ReadConfYAMLFile(path)
	default:
		return nil, fmt.Errorf("unknown format %q, want conf or yaml", format)
	}
}

func saveStructure(nc *nnet.Compiler, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nc.SaveStructure(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "netcompile: "+format+"\n", args...)
	os.Exit(1)
}
