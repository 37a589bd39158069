package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fyrsmithlabs/ragchat/internal/agent"
	"go.uber.org/zap"
)

var exitWords = map[string]bool{"sair": true, "exit": true, "quit": true}

// IsExit reports whether line is an exit keyword, ignoring case and
// surrounding space.
func IsExit(line string) bool {
	return exitWords[strings.ToLower(strings.TrimSpace(line))]
}

const (
	separator    = "--------------------------------------------------"
	maxLineBytes = 1024 * 1024
	previewChars = 200
	previewDocs  = 2
)

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	// Name appears in the greeting and the answer header.
	Name   string
	Stream bool
	Logger *zap.Logger
}

// Console is the line-oriented chat loop.
type Console struct {
	agent   Agent
	in      io.Reader
	out     io.Writer
	opts    ConsoleOptions
	session *Session
	styles  consoleStyles
}

type consoleStyles struct {
	header  lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	dim     lipgloss.Style
}

func newConsoleStyles(out io.Writer) consoleStyles {
	r := lipgloss.NewRenderer(out)
	return consoleStyles{
		header:  r.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("45")),
		success: r.NewStyle().Foreground(lipgloss.Color("46")),
		warning: r.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		err:     r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		dim:     r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// NewConsole returns a console reading from in and writing to out.
func NewConsole(a Agent, in io.Reader, out io.Writer, opts ConsoleOptions) *Console {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "Professor"
	}
	return &Console{agent: a, in: in, out: out, opts: opts, session: NewSession(), styles: newConsoleStyles(out)}
}

// Session returns the console's conversation.
func (c *Console) Session() *Session { return c.session }

// Run loops until an exit keyword, end of input or ctx is done. A failed turn
// prints an error line and the loop continues.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, c.styles.header.Render(fmt.Sprintf("🦙 %s iniciado!", c.opts.Name)))
	fmt.Fprintln(c.out, "Digite 'sair' para encerrar")
	fmt.Fprintln(c.out)

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(c.out, "💭 Digite sua pergunta: ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		}
		line := scanner.Text()
		if IsExit(line) {
			fmt.Fprintln(c.out, "👋 Até logo!")
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		_ = c.turn(ctx, strings.TrimSpace(line))
	}
}

// Ask runs a single turn, without the greeting or the input loop, and
// returns the turn's error.
func (c *Console) Ask(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return agent.ErrEmptyInput
	}
	return c.turn(ctx, input)
}

func (c *Console) turn(ctx context.Context, input string) error {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.styles.header.Render(fmt.Sprintf("🤖 Resposta do %s:", c.opts.Name)))
	fmt.Fprintln(c.out, separator)

	r := &consoleRenderer{out: c.out, styles: c.styles}
	_, err := RunTurn(ctx, c.agent, c.session, input, c.opts.Stream, r.Render)
	if err != nil {
		c.opts.Logger.Warn("chat turn failed", zap.Error(err))
	}

	fmt.Fprintln(c.out, separator)
	fmt.Fprintln(c.out)
	return err
}

// consoleRenderer writes renders as styled lines. Streamed content is printed
// as it arrives; a final payload that differs from it is printed whole.
type consoleRenderer struct {
	out     io.Writer
	styles  consoleStyles
	printed strings.Builder
}

func (r *consoleRenderer) Render(ev Render) error {
	switch ev.Kind {
	case RenderInfo:
		r.line(r.styles.info.Render(ev.Text))
	case RenderSuccess:
		r.line(r.styles.success.Render(ev.Text))
	case RenderWarning:
		r.line(r.styles.warning.Render(ev.Text))
	case RenderError:
		r.line(r.styles.err.Render(ev.Text))
	case RenderContent:
		if !ev.Final {
			fmt.Fprint(r.out, ev.Delta)
			r.printed.WriteString(ev.Delta)
			return nil
		}
		if ev.Text != r.printed.String() {
			r.line(ev.Text)
		} else {
			fmt.Fprintln(r.out)
		}
		r.printed.Reset()
	case RenderSources:
		r.sources(ev)
	}
	return nil
}

// line ends any partially streamed content before writing s.
func (r *consoleRenderer) line(s string) {
	if r.printed.Len() > 0 {
		fmt.Fprintln(r.out)
		r.printed.Reset()
	}
	fmt.Fprintln(r.out, s)
}

func (r *consoleRenderer) sources(ev Render) {
	r.line(r.styles.header.Render(ev.Text))
	for _, ref := range ev.References {
		fmt.Fprintf(r.out, "**Busca:** `%s`\n", ref.Query)
		fmt.Fprintf(r.out, "**%d documentos encontrados**\n", len(ref.Documents))
		for i, doc := range ref.Documents {
			if i == previewDocs {
				break
			}
			fmt.Fprintf(r.out, "📄 **%s** (%s)\n", doc.Name, doc.Category)
			fmt.Fprintln(r.out, r.styles.dim.Render(Preview(doc.Content, previewChars)))
		}
	}
}

// Preview cuts s to n runes with a trailing "...".
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
