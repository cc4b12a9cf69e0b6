package console

import (
	"fmt"
	"io"
	"os"

	"blackboxbe/internal/domain/ports"
)

// Notifier выводит уведомления в поток ошибок и дублирует их в журнал.
type Notifier struct {
	out io.Writer
	log ports.Logger
}

func NewNotifier(out io.Writer, log ports.Logger) *Notifier {
	if out == nil {
		out = os.Stderr
	}
	return &Notifier{out: out, log: log}
}

func (n *Notifier) Notify(title, body string) {
	fmt.Fprintf(n.out, "\n*** %s ***\n%s\n\n", title, body)
	if n.log != nil {
		n.log.Warn("user notified", "title", title, "body", body)
	}
}
