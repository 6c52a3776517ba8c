package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

type line struct {
	text string
	err  error
}

// Prompter reads answers line by line and writes prompts and results.
type Prompter struct {
	out   io.Writer
	lines chan line
}

// NewPrompter starts reading in. The reader goroutine stops at end of input.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		out:   out,
		lines: make(chan line),
	}
	go p.read(in)
	return p
}

func (p *Prompter) read(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		p.lines <- line{text: scanner.Text()}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	p.lines <- line{err: err}
	close(p.lines)
}

// ReadLine writes prompt and waits for the next line with surrounding spaces
// trimmed. It returns io.EOF when input is exhausted and the context error
// when ctx is done first.
func (p *Prompter) ReadLine(ctx context.Context, prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}

// Println writes a line of output.
func (p *Prompter) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes formatted output.
func (p *Prompter) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}
