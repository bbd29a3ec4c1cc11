// Package confirm asks the operator a yes/no question on a line-oriented
// terminal before destructive cache operations.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
)

// ErrNoInput 表示运行在非交互模式（--no-input 或 PIP_NO_INPUT），无法提问。
var ErrNoInput = errors.New("confirmation required but input is disabled")

// Prompter 从 in 读取回答，提示写到 out。
type Prompter struct {
	in      *bufio.Reader
	out     io.Writer
	noInput bool
}

// New 创建 Prompter；noInput 为 true 时 Confirm 直接返回错误。
func New(in io.Reader, out io.Writer, noInput bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, noInput: noInput}
}

// Confirm 重复提问直到得到 yes 或 no（忽略大小写与首尾空白）。输入结束视为拒绝。
func (p *Prompter) Confirm(prompt string) (bool, error) {
	if p.noInput {
		return false, platformerrors.Wrap(ErrNoInput, platformerrors.CodeInvalidInput,
			"refusing to prompt; pass --yes to remove without confirmation")
	}
	for {
		if _, err := fmt.Fprint(p.out, prompt); err != nil {
			return false, err
		}
		line, err := p.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				return false, nil
			}
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		fmt.Fprintf(p.out, "Your response (%q) was not one of the expected responses: yes, no\n", answer)
	}
}
