package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// errBack is returned by ask when the user types the back command.
var errBack = errors.New("back")

const backCommand = ":back"

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// ask reads one line, returning def for an empty answer.
func (p *prompter) ask(label, def string) (string, error) {
	if def != "" {
		p.printf("%s [%s]: ", label, def)
	} else {
		p.printf("%s: ", label)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	v := strings.TrimSpace(p.in.Text())
	switch {
	case v == backCommand:
		return "", errBack
	case v == "":
		return def, nil
	default:
		return v, nil
	}
}

// confirm asks a yes or no question.
func (p *prompter) confirm(label string, def bool) (bool, error) {
	d := "y/N"
	if def {
		d = "Y/n"
	}
	v, err := p.ask(label+" ("+d+")", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(v) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
