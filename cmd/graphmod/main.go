package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/graphmod/graphmod/internal/manifest"
)

const rootUsage = `graphmod — composable GraphQL schema modules

USAGE:
  graphmod <command> [flags]

COMMANDS:
  compose          Assemble a manifest's component tree and print the merged SDL
  check            Assemble a manifest's component tree and report errors only
  help             Show help for any command
`

const composeUsage = `compose FLAGS:
  -manifest <file>   Component manifest (default: graphmod.yaml)
  -out <file>        Write composed SDL to file (default: stdout)
`

const checkUsage = `check FLAGS:
  -manifest <file>   Component manifest (default: graphmod.yaml)
  (Exits non-zero when the tree does not assemble)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "compose":
		return cmdCompose(cmdArgs)
	case "check":
		return cmdCheck(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "compose":
		fmt.Print(composeUsage)
	case "check":
		fmt.Print(checkUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdCompose(args []string) error {
	manifestPath := "graphmod.yaml"
	outPath := ""

	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&manifestPath, "manifest", manifestPath, "Component manifest")
	fs.StringVar(&outPath, "out", outPath, "Write composed SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, composeUsage)
		return err
	}

	root, err := manifest.Load(manifestPath)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	s, err := root.Schema()
	if err != nil {
		return err
	}
	if outPath == "" {
		fmt.Print(s.SDL)
		return nil
	}
	return os.WriteFile(outPath, []byte(s.SDL), 0644)
}

func cmdCheck(args []string) error {
	manifestPath := "graphmod.yaml"

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&manifestPath, "manifest", manifestPath, "Component manifest")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkUsage)
		return err
	}

	root, err := manifest.Load(manifestPath)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	if _, err := root.Schema(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "ok: %s assembles\n", root.Name())
	return nil
}
