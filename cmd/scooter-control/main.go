package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"golang.org/x/term"

	"github.com/m365ble/scooter-command/internal/emulator"
	"github.com/m365ble/scooter-command/internal/log"
	"github.com/m365ble/scooter-command/pkg/cli"
	"github.com/m365ble/scooter-command/pkg/protocol"
	"github.com/m365ble/scooter-command/pkg/scooter"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * Session commands are sent to an emulated scooter paired at startup.
 * encode and decode work on plaintext frames and do not need a session.
 * Without a COMMAND, commands are read interactively from stdin.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] COMMAND [ARG...]\n", os.Args[0])
	fmt.Printf("\nRun %s help COMMAND for more information. Valid COMMANDs are listed below.", os.Args[0])
	fmt.Println("")
	fmt.Println(usage)
	fmt.Println("")

	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Printf("Available COMMANDs:\n")
	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		if len(command) > maxLength {
			maxLength = len(command)
		}
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

func runCommand(config *cli.Config, client *scooter.Client, device *emulator.Scooter, args []string) int {
	ctx, cancel := config.Context(context.Background())
	defer cancel()

	if err := execute(ctx, client, device, args); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeErr("Scooter did not respond within %s", config.CommandTimeout)
		} else if errors.Is(err, protocol.ErrCounterReplay) {
			writeErr("Scooter rejected a reused counter: %s", err)
		} else {
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

// lineReader yields shell input one line at a time. io.EOF ends the shell.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

type scannerReader struct {
	scanner *bufio.Scanner
}

func (s *scannerReader) ReadLine() (string, error) {
	fmt.Printf("> ")
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scannerReader) Close() error {
	return nil
}

type terminalReader struct {
	rl *readline.Instance
}

func (t *terminalReader) ReadLine() (string, error) {
	for {
		line, err := t.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		return line, err
	}
}

func (t *terminalReader) Close() error {
	return t.rl.Close()
}

func newLineReader() (lineReader, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return &scannerReader{scanner: bufio.NewScanner(os.Stdin)}, nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &terminalReader{rl: rl}, nil
}

func runInteractiveShell(config *cli.Config, client *scooter.Client, device *emulator.Scooter) int {
	input, err := newLineReader()
	if err != nil {
		writeErr("Error opening terminal: %s", err)
		return 1
	}
	defer input.Close()

	for {
		line, err := input.ReadLine()
		if errors.Is(err, io.EOF) {
			return 0
		}
		if err != nil {
			writeErr("Error reading command: %s", err)
			return 1
		}
		args, err := shlex.Split(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return 0
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		if args[0] == "help" {
			printHelp(args[1:])
			continue
		}
		runCommand(config, client, device, args)
	}
}

func printHelp(args []string) bool {
	if len(args) == 0 {
		Usage()
		return true
	}
	info, ok := commands[args[0]]
	if !ok {
		writeErr("Unrecognized command: %s", args[0])
		return false
	}
	info.Usage(args[0])
	return true
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	config, err := cli.NewConfig(cli.FlagAll)
	if err != nil {
		writeErr("Failed to load configuration: %s", err)
		return
	}
	flag.Usage = Usage
	config.RegisterCommandLineFlags()
	flag.Parse()
	config.ReadFromEnvironment()
	if config.Debug {
		log.SetLevel(log.LevelDebug)
	}
	selectedRegisters = config.Attributes

	args := flag.Args()
	if len(args) > 0 {
		if args[0] == "help" {
			if printHelp(args[1:]) {
				status = 0
			}
			return
		}
		if info, ok := commands[args[0]]; ok && !info.requiresSession {
			status = runCommand(config, nil, nil, args)
			return
		}
	}

	client, device, err := config.ConnectEmulator()
	if err != nil {
		writeErr("Error: %s", err)
		return
	}
	defer client.Close()
	log.Info("Paired with emulated scooter %s", device.Info())

	if len(args) > 0 {
		status = runCommand(config, client, device, args)
	} else {
		status = runInteractiveShell(config, client, device)
	}
}
