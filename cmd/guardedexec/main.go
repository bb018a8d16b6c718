// guardedexec validates a shell command against a security policy and a
// project file scope, then runs it with kernel-level filesystem enforcement
// where the platform supports it.
//
//	guardedexec -root ./myproject -- git status
//	guardedexec -root . -preset permissive -report -- make test
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/southpawriter02/sidekick-sub001/internal/auditstore"
	"github.com/southpawriter02/sidekick-sub001/internal/enforce"
	"github.com/southpawriter02/sidekick-sub001/internal/logger"
	"github.com/southpawriter02/sidekick-sub001/internal/security"
)

type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(value string) error {
	if value == "" {
		return fmt.Errorf("value cannot be empty")
	}
	*s = append(*s, value)
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("guardedexec", flag.ContinueOnError)

	var extraDirs stringSlice
	root := fs.String("root", ".", "project directory the command may touch")
	fs.Var(&extraDirs, "dir", "additional allowed directory (repeatable)")
	workDir := fs.String("C", "", "working directory for the command (default: root)")
	readOnly := fs.Bool("read-only", false, "deny writes inside the scope")
	presetName := fs.String("preset", "secure", "security preset: secure or permissive")
	harden := fs.Bool("harden", false, "tighten the chosen preset")
	relax := fs.Bool("relax", false, "loosen the chosen preset")
	assumeYes := fs.Bool("yes", false, "skip confirmation prompts")
	noEnforce := fs.Bool("no-enforce", false, "skip kernel-level filesystem enforcement")
	auditDB := fs.String("audit-db", "", "SQLite file to archive security events to")
	report := fs.Bool("report", false, "print the security report when done")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn, error, none")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: guardedexec [flags] -- command...\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger.Init(logger.New(logger.ParseLevel(*logLevel), os.Stderr, "guardedexec"))

	preset, ok := security.PresetByName(*presetName)
	if !ok {
		return fmt.Errorf("unknown preset %q", *presetName)
	}
	cfg := preset.Build()
	if *harden {
		cfg = cfg.Harden()
	}
	if *relax {
		cfg = cfg.Relax()
	}

	events := security.NewEventLog()
	sandbox, err := security.NewCommandSandbox(cfg, events)
	if err != nil {
		return err
	}
	if *auditDB != "" {
		defer archiveEvents(*auditDB, events)
	}

	rootAbs, err := filepath.Abs(*root)
	if err != nil {
		return err
	}
	scope, err := buildScope(rootAbs, extraDirs, *readOnly)
	if err != nil {
		return err
	}
	access := security.NewFileAccess(scope, cfg)

	command := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if command == "" {
		if *report {
			fmt.Print(sandbox.Report())
			return nil
		}
		fs.Usage()
		return errors.New("no command given")
	}

	dir := *workDir
	if dir == "" {
		dir = rootAbs
	}

	if res := access.ValidateCommandWorkingDir(dir); !res.Valid {
		printIssues(res.Issues)
		return fmt.Errorf("working directory %q refused", dir)
	}
	if res := sandbox.ValidateCommand(command, dir); !res.Valid {
		printIssues(res.Issues)
		if *report {
			fmt.Print(sandbox.Report())
		}
		return fmt.Errorf("command refused")
	}

	if sandbox.RequiresConfirmation(command) && !*assumeYes {
		if !confirm(command) {
			return errors.New("aborted")
		}
	}

	if !*noEnforce && enforce.Supported() {
		restrictor := enforce.FromScope(scope, true)
		if *auditDB != "" {
			// The archive must stay writable after restriction kicks in.
			restrictor.AddRule(filepath.Dir(*auditDB), enforce.AccessReadWrite)
		}
		if err := restrictor.Apply(); err != nil {
			return fmt.Errorf("refusing to run without enforcement: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	if *report {
		fmt.Print(sandbox.Report())
	}
	return runErr
}

func buildScope(root string, extraDirs []string, readOnly bool) (security.FileScope, error) {
	var scope security.FileScope
	var err error
	if readOnly {
		scope, err = security.ReadOnlyProject(root)
	} else {
		scope, err = security.ForProject(root)
	}
	if err != nil {
		return security.FileScope{}, err
	}
	for _, dir := range extraDirs {
		if scope, err = scope.WithAdditionalDirectory(dir); err != nil {
			return security.FileScope{}, err
		}
	}
	return scope, nil
}

func printIssues(issues []security.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "  [%s] %s: %s\n", issue.Severity, issue.Type, issue.Description)
	}
}

func confirm(command string) bool {
	fmt.Fprintf(os.Stderr, "About to run: %s\nProceed? [y/N] ", command)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func archiveEvents(dbPath string, events *security.EventLog) {
	store, err := auditstore.Open(dbPath)
	if err != nil {
		logger.Warn("audit archive unavailable: %v", err)
		return
	}
	defer store.Close()
	if err := store.Archive(events); err != nil {
		logger.Warn("failed to archive events: %v", err)
	}
}
