package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter запрашивает PIN-код фискального модуля в терминале.
type Prompter struct {
	in  io.Reader
	out io.Writer
	fd  int // дескриптор терминала; -1, если ввод не из терминала
}

// NewPrompter создаёт запрос PIN через стандартный ввод.
// Если stdin — терминал, вводимые символы не отображаются.
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &Prompter{in: os.Stdin, out: os.Stderr, fd: fd}
}

// NewReaderPrompter создаёт запрос PIN, читающий строки из произвольного источника.
func NewReaderPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, fd: -1}
}

type pinResult struct {
	pin string
	err error
}

// PromptPin выводит заголовок и читает PIN. Пустой ввод или конец ввода означают отказ.
func (p *Prompter) PromptPin(ctx context.Context, title string) (string, bool, error) {
	fmt.Fprintf(p.out, "%s: ", title)

	done := make(chan pinResult, 1)
	go func() {
		pin, err := p.read()
		done <- pinResult{pin: pin, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", false, ctx.Err()
	case res := <-done:
		if res.err == io.EOF {
			return "", false, nil
		}
		if res.err != nil {
			return "", false, fmt.Errorf("ошибка чтения PIN: %w", res.err)
		}
		pin := strings.TrimSpace(res.pin)
		if pin == "" {
			return "", false, nil
		}
		return pin, true, nil
	}
}

func (p *Prompter) read() (string, error) {
	if p.fd >= 0 {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		return string(b), err
	}

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	return line, err
}
