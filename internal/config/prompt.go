package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrPasswordMismatch is returned when the two password entries differ
var ErrPasswordMismatch = errors.New("passwords do not match")

// Prompter asks for missing values on the terminal
type Prompter struct {
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
}

// NewPrompter reads from stdin and writes prompts to stderr.
// Passwords are read without echo when stdin is a terminal.
func NewPrompter() *Prompter {
	p := newPrompter(os.Stdin, os.Stderr, nil)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.readPassword = func() (string, error) {
			raw, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			return string(raw), err
		}
	}
	return p
}

func newPrompter(in io.Reader, out io.Writer, readPassword func() (string, error)) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	p.readPassword = readPassword
	if p.readPassword == nil {
		p.readPassword = p.readLine
	}
	return p
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Username asks for a user name until a non-empty one is given
func (p *Prompter) Username() (string, error) {
	for {
		fmt.Fprint(p.out, "Username: ")
		name, err := p.readLine()
		if err != nil {
			return "", fmt.Errorf("failed to read username: %w", err)
		}
		if name = strings.TrimSpace(name); name != "" {
			return name, nil
		}
	}
}

// passwordAttempts caps how often a mismatching password is re-entered
const passwordAttempts = 3

// Password asks for the password twice until both entries match
func (p *Prompter) Password() (string, error) {
	for attempt := 1; attempt <= passwordAttempts; attempt++ {
		fmt.Fprint(p.out, "Password: ")
		first, err := p.readPassword()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprint(p.out, "Retype password: ")
		second, err := p.readPassword()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		switch {
		case first != second:
			fmt.Fprintln(p.out, "Passwords do not match. Try again")
		case first == "":
			fmt.Fprintln(p.out, "Password must not be empty. Try again")
		default:
			return first, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrPasswordMismatch, passwordAttempts)
}

// Confirm asks a yes/no question; only "y" or "yes" count as yes
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	answer, err := p.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ResolveCredentials prompts for whatever credential is still missing
func (cfg *Config) ResolveCredentials(p *Prompter) error {
	if cfg.Username == "" {
		name, err := p.Username()
		if err != nil {
			return err
		}
		cfg.Username = name
	}
	if cfg.Password == "" {
		password, err := p.Password()
		if err != nil {
			return err
		}
		cfg.Password = password
	}
	return nil
}
