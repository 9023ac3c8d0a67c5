package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio реализует IO поверх стандартных потоков процесса
type Stdio struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewStdio создает IO на os.Stdin и os.Stdout
func NewStdio() IO {
	return &Stdio{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		fd:  int(os.Stdin.Fd()),
	}
}

// NewStdioFrom создает IO на произвольных потоках.
// Пароль в этом случае читается как обычная строка.
func NewStdioFrom(in io.Reader, out io.Writer) IO {
	return &Stdio{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	return s.readLine()
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)

	// Если stdin не терминал (pipe, тесты), читаем строку как есть
	if s.fd < 0 || !term.IsTerminal(s.fd) {
		return s.readLine()
	}

	pwBytes, err := term.ReadPassword(s.fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

func (s *Stdio) readLine() (string, error) {
	input, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
