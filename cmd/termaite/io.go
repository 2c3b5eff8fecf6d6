package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// readlineIO implements both engine.UserIO and simple.UserIO, backed by
// a chzyer/readline instance when one can be opened and a plain stdin
// reader otherwise.
type readlineIO struct {
	rl       *readline.Instance
	fallback *bufio.Reader
}

// newReadlineIO opens a readline instance with a persistent history
// file under the user's home directory, falling back to bufio on any
// failure so the CLI still works under a dumb terminal or in tests.
func newReadlineIO() *readlineIO {
	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = home + "/.termaite/history"
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return &readlineIO{fallback: bufio.NewReader(os.Stdin)}
	}
	return &readlineIO{rl: rl}
}

func (io *readlineIO) Println(line string) {
	fmt.Println(line)
}

// ReadLine prints prompt then blocks for one line of input.
func (io *readlineIO) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Println(prompt)
	}
	if io.rl != nil {
		line, err := io.rl.Readline()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	line, err := io.fallback.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (io *readlineIO) Close() error {
	if io.rl != nil {
		return io.rl.Close()
	}
	return nil
}
