package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/tuannm99/mahfile/internal"
	"github.com/tuannm99/mahfile/internal/linhash"
	"github.com/tuannm99/mahfile/internal/tuple"
)

// printUsage prints helpful usage information
func printUsage() {
	fmt.Fprintln(os.Stderr, "mahfile - multi-attribute linear-hashed files")
	fmt.Fprintln(os.Stderr, "\nUsage:")
	fmt.Fprintln(os.Stderr, "  mahfile [options] create <name> <nattrs> <npages> <depth> [chvec]")
	fmt.Fprintln(os.Stderr, "  mahfile [options] insert <name>          (tuples on stdin, one per line)")
	fmt.Fprintln(os.Stderr, "  mahfile [options] select <name> <pattern>")
	fmt.Fprintln(os.Stderr, "  mahfile [options] stats <name>")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "\nExamples:")
	fmt.Fprintln(os.Stderr, `  mahfile create parts 4 1 0 "0,0:1,0:2,0:3,0"`)
	fmt.Fprintln(os.Stderr, `  mahfile select parts "?,bolt,?,?"`)
}

func main() {
	var (
		dir     string
		cfgPath string
		debug   bool
	)
	flag.StringVar(&dir, "dir", ".", "Directory holding the relation files")
	flag.StringVar(&cfgPath, "config", "", "Path to mahfile yaml config")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Usage = printUsage
	flag.Parse()

	if cfgPath != "" {
		cfg, err := internal.LoadConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mahfile: %v\n", err)
			os.Exit(1)
		}
		// explicit flags win over the config file
		dirSet, debugSet := false, false
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "dir":
				dirSet = true
			case "debug":
				debugSet = true
			}
		})
		if !dirSet && cfg.Storage.Dir != "" {
			dir = cfg.Storage.Dir
		}
		if !debugSet {
			debug = cfg.Log.Debug
		}
	}

	log, err := internal.NewLogger(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mahfile: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "create":
		err = runCreate(dir, args[1:])
	case "insert":
		err = runInsert(dir, args[1:], log)
	case "select":
		err = runSelect(dir, args[1:], log)
	case "stats":
		err = runStats(dir, args[1:], log)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mahfile %s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func runCreate(dir string, args []string) error {
	if len(args) != 4 && len(args) != 5 {
		return fmt.Errorf("usage: create <name> <nattrs> <npages> <depth> [chvec]")
	}
	name := args[0]
	nattrs, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad attribute count %q: %w", args[1], err)
	}
	npages, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad page count %q: %w", args[2], err)
	}
	depth, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("bad depth %q: %w", args[3], err)
	}
	cv := ""
	if len(args) == 5 {
		cv = args[4]
	}
	return linhash.Create(dir, name, nattrs, npages, depth, cv)
}

func runInsert(dir string, args []string, log *zap.SugaredLogger) (err error) {
	if len(args) != 1 {
		return fmt.Errorf("usage: insert <name>")
	}
	r, err := linhash.Open(dir, args[0], linhash.ReadWrite, log)
	if err != nil {
		return err
	}
	// keep whatever was inserted before a failing line
	defer func() {
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		s := sc.Text()
		if s == "" {
			continue
		}
		t, perr := tuple.Parse(r.NAttrs(), s)
		if perr != nil {
			return fmt.Errorf("line %d: %w", line, perr)
		}
		if _, ierr := r.Insert(t); ierr != nil {
			return fmt.Errorf("line %d: %w", line, ierr)
		}
	}
	if serr := sc.Err(); serr != nil {
		return serr
	}
	log.Infow("insert done", "relation", args[0], "lines", line, "ntuples", r.NTuples())
	return nil
}

func runSelect(dir string, args []string, log *zap.SugaredLogger) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: select <name> <pattern>")
	}
	r, err := linhash.Open(dir, args[0], linhash.ReadOnly, log)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	q, err := r.NewQuery(args[1])
	if err != nil {
		return err
	}
	defer func() { _ = q.Close() }()

	w := bufio.NewWriter(os.Stdout)
	for q.Next() {
		fmt.Fprintln(w, q.Tuple())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return q.Err()
}

func runStats(dir string, args []string, log *zap.SugaredLogger) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: stats <name>")
	}
	r, err := linhash.Open(dir, args[0], linhash.ReadOnly, log)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	return r.Stats(os.Stdout)
}
