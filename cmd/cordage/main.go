// Command cordage diffs and patches files from the command line, and
// can serve a patch-sync session endpoint over websockets.
//
// Usage:
//
//	cordage diff <old> <new>            colored diff on stdout
//	cordage diff -delta <old> <new>     compact delta format
//	cordage patch <old> <new>           patch text on stdout
//	cordage apply <patchfile> <file>    apply patches, report results
//	cordage serve [-addr :8080]         websocket sync endpoint
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/coreseekdev/cordage/pkg/dmp"
	syncpkg "github.com/coreseekdev/cordage/pkg/sync"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "diff":
		runDiff(os.Args[2:])
	case "patch":
		runPatch(os.Args[2:])
	case "apply":
		runApply(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cordage diff|patch|apply|serve [args]")
	os.Exit(2)
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cordage:", err)
		os.Exit(1)
	}
	return string(data)
}

func runDiff(args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	asDelta := fs.Bool("delta", false, "emit the compact delta format")
	byWords := fs.Bool("words", false, "diff at word granularity")
	fs.Parse(args)
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: cordage diff [-delta] [-words] <old> <new>")
		os.Exit(2)
	}
	oldText := readFile(fs.Arg(0))
	newText := readFile(fs.Arg(1))

	var diffs []dmp.Diff[rune]
	if *byWords {
		diffs = dmp.DiffWords(oldText, newText, dmp.TextOptions())
	} else {
		diffs = dmp.DiffText(oldText, newText)
	}

	if *asDelta {
		fmt.Println(dmp.ToDelta(diffs))
		return
	}
	fmt.Print(dmp.PrettyText(diffs))
	fmt.Printf("\n--\n%d edit(s), distance %d\n", len(diffs), dmp.Levenshtein(diffs))
}

func runPatch(args []string) {
	fs := flag.NewFlagSet("patch", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: cordage patch <old> <new>")
		os.Exit(2)
	}
	patches := dmp.MakeTextPatches(readFile(fs.Arg(0)), readFile(fs.Arg(1)))
	fmt.Print(dmp.PatchToText(patches))
}

func runApply(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	output := fs.String("o", "", "write result to file instead of stdout")
	fs.Parse(args)
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: cordage apply [-o out] <patchfile> <file>")
		os.Exit(2)
	}
	patches, err := dmp.PatchFromText(readFile(fs.Arg(0)))
	if err != nil {
		fmt.Fprintln(os.Stderr, "cordage:", err)
		os.Exit(1)
	}
	text := readFile(fs.Arg(1))

	result, applied := dmp.ApplyTextPatches(patches, text)
	failed := 0
	for i, ok := range applied {
		if !ok {
			failed++
			fmt.Fprintf(os.Stderr, "cordage: patch %d did not apply\n", i+1)
		}
	}

	if *output == "" {
		fmt.Print(result)
	} else if err := os.WriteFile(*output, []byte(result), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "cordage:", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	manager := syncpkg.NewManager(syncpkg.NewMemoryHistory(), logger)
	transport := syncpkg.NewWebSocketTransport(manager, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", transport)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Info("cordage sync listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
