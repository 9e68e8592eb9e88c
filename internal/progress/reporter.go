package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback while a document is uploaded.
type Reporter interface {
	Start(total int64, name string)
	Add(n int)
	Finish()
}

// NewReporter returns a TerminalReporter if running in an interactive terminal,
// or a CIReporter if the CI environment variable is set.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{}
}

// TerminalReporter displays a byte progress bar in the terminal.
type TerminalReporter struct {
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int64, name string) {
	r.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("Enviando "+name),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Add(n int) {
	if r.bar != nil {
		_ = r.bar.Add(n)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints line-by-line progress suitable for CI logs, one line
// per quarter of the upload.
type CIReporter struct {
	Out   io.Writer
	total int64
	done  int64
	step  int
}

func (r *CIReporter) Start(total int64, name string) {
	r.total, r.done, r.step = total, 0, 0
	fmt.Fprintf(r.Out, "Enviando %s (%d bytes)\n", name, total)
}

func (r *CIReporter) Add(n int) {
	r.done += int64(n)
	if r.total <= 0 {
		return
	}
	for r.step < 4 && r.done*4 >= r.total*int64(r.step+1) {
		r.step++
		fmt.Fprintf(r.Out, "[%d%%] %d/%d bytes\n", r.step*25, r.done, r.total)
	}
}

func (r *CIReporter) Finish() {
	fmt.Fprintln(r.Out, "Envio concluído")
}

// Reader reports every read from r to rep.
func Reader(r io.Reader, rep Reporter) io.Reader {
	return &reader{r: r, rep: rep}
}

type reader struct {
	r   io.Reader
	rep Reporter
}

func (p *reader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.rep.Add(n)
	}
	return n, err
}
