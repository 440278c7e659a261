package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/cli"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/codegen"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/config"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/diag"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/lexer"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/parser"
)

func main() {
	app := cli.NewApp("cforge")
	app.Synopsis = "[options] <input.cf>"
	app.Description = "An ahead-of-time compiler for the CForge language: a small C-like language with int, float, string and bool types, compiled through QBE."

	var (
		outFile      string
		target       string
		dumpIR       bool
		warningFlags []string
		featureFlags []string
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "out.s", "Place the generated assembly into <file>.", "file")
	fs.String(&target, "target", "t", "", "Set the QBE target ABI (defaults to the host).", "target")
	fs.Bool(&dumpIR, "emit-ir", "d", false, "Print the intermediate module to stdout and exit.")
	fs.Special(&warningFlags, "W", "Toggle a warning (e.g. -Wno-unreachable-code).", "warning")
	fs.Special(&featureFlags, "F", "Toggle a feature (e.g. -Fstrict-types).", "feature")

	cfg := config.NewConfig()

	app.Action = func(inputFiles []string) error {
		if len(inputFiles) != 1 {
			return fmt.Errorf("expected exactly one input file, got %d", len(inputFiles))
		}
		path := inputFiles[0]

		for _, flag := range warningFlags {
			cfg.ApplyFlag("-W" + flag)
		}
		for _, flag := range featureFlags {
			cfg.ApplyFlag("-F" + flag)
		}
		cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target)

		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		source := string(src)

		bag := diag.NewBag()
		printer := diag.NewPrinter(os.Stderr, path, source)

		toks := lexer.Tokenize(source, bag)
		p := parser.NewParser(toks, bag, cfg)
		root, tab, err := p.Parse()
		if err != nil {
			printer.PrintAll(bag)
			return err
		}

		if cfg.IsFeatureEnabled(config.FeatStrictTypes) && bag.HasErrors() {
			printer.PrintAll(bag)
			return fmt.Errorf("compilation stopped: %d error(s)", bag.Len())
		}

		ctx := codegen.NewContext(cfg, bag)
		mod, err := ctx.Generate(root, tab)
		printer.PrintAll(bag)
		if err != nil {
			return err
		}

		backend := codegen.NewQBEBackend()
		if dumpIR {
			text, err := backend.GenerateIR(mod, cfg)
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		}

		asm, err := backend.Generate(mod, cfg)
		if err != nil {
			return err
		}
		return os.WriteFile(outFile, asm.Bytes(), 0o644)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "cforge: error: %v\n", err)
		os.Exit(1)
	}
}
