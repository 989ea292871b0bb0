package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/ergochat/readline"
	"github.com/spf13/cobra"

	"github.com/windexdb/winx"
	"github.com/windexdb/winx/httpdispatch"
	"github.com/windexdb/winx/route"
	"github.com/windexdb/winx/store/pebblestore"
)

// REPL is an interactive admin console attached to a locally-opened
// store, adapted from the teacher's own readline scaffold (repl/repl.go)
// onto winx's own command set instead of chotki's object-store commands.
type REPL struct {
	idx *winx.Indexer
	rl  *readline.Instance
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("show",
		readline.PcItem("registry"),
		readline.PcItem("queues"),
	),
	readline.PcItem("gc", readline.PcItem("now")),
	readline.PcItem("snapshot", readline.PcItem("dump")),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}

func (r *REPL) Open() (err error) {
	r.rl, err = readline.NewEx(&readline.Config{
		Prompt:              "winx> ",
		HistoryFile:         ".windexd_cmd_log.txt",
		AutoComplete:        completer,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	r.rl.CaptureExitSignal()
	return nil
}

func (r *REPL) Close() error {
	if r.rl != nil {
		_ = r.rl.Close()
		r.rl = nil
	}
	return nil
}

// Step reads one command line and executes it, returning io.EOF once the
// operator asks to exit.
func (r *REPL) Step() error {
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(os.Stdout, "show registry | show queues | gc now | snapshot dump | exit")
	case "show":
		r.cmdShow(args)
	case "gc":
		r.cmdGC(args)
	case "snapshot":
		r.cmdSnapshot(args)
	case "exit", "quit":
		return io.EOF
	default:
		fmt.Fprintf(os.Stderr, "command unknown: %s\n", cmd)
	}
	return nil
}

func (r *REPL) cmdShow(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: show registry|queues")
		return
	}
	switch args[0] {
	case "registry":
		fmt.Fprintf(os.Stdout, "requests tracked: %d\n", r.idx.RegistryLen())
	case "queues":
		for i, d := range r.idx.QueueDepths() {
			fmt.Fprintf(os.Stdout, "shard %d: %d queued\n", i, d)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown target: %s\n", args[0])
	}
}

func (r *REPL) cmdGC(args []string) {
	if len(args) == 0 || args[0] != "now" {
		fmt.Fprintln(os.Stderr, "usage: gc now")
		return
	}
	pruned, err := r.idx.TriggerGC()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gc sweep had errors: %v (pruned %d)\n", err, pruned)
		return
	}
	fmt.Fprintf(os.Stdout, "pruned %d abandoned requests\n", pruned)
}

func (r *REPL) cmdSnapshot(args []string) {
	if len(args) == 0 || args[0] != "dump" {
		fmt.Fprintln(os.Stderr, "usage: snapshot dump")
		return
	}
	data, err := r.idx.SnapshotYAML()
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
		return
	}
	os.Stdout.Write(data)
}

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "open an interactive admin console against a local data directory",
		RunE:  runRepl,
	}
	bindFlags(cmd)
	return cmd
}

func runRepl(cmd *cobra.Command, _ []string) error {
	cfg, dataDir, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := pebble.Open(dataDir, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("open pebble: %w", err)
	}
	pstore := pebblestore.Wrap(db)

	routes := route.StaticTable{echoRouteHash: {Handler: echoHandler, AsyncRes: false}}
	idx := winx.New(pstore, routes, httpdispatch.New(), cfg)
	idx.Start()
	defer idx.Close()

	repl := &REPL{idx: idx}
	if err := repl.Open(); err != nil {
		return err
	}
	defer repl.Close()

	for {
		if err := repl.Step(); err != nil {
			if err == io.EOF {
				return nil
			}
			fmt.Fprintln(os.Stdout, err.Error())
		}
	}
}
