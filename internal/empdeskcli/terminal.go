package empdeskcli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/phillip-england/empdesk/internal/controller"
)

// terminal prompts on stdin and prints notices as lines. assumeYes skips the
// question entirely.
type terminal struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
	confirmed bool
}

func newTerminal(e env, assumeYes bool) *terminal {
	return &terminal{in: bufio.NewReader(e.in), out: e.out, assumeYes: assumeYes}
}

func (t *terminal) Confirm(message string) bool {
	t.confirmed = t.ask(message)
	return t.confirmed
}

func (t *terminal) ask(message string) bool {
	if t.assumeYes {
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N] ", message)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (t *terminal) Notify(message string) {
	fmt.Fprintln(t.out, message)
}

func printTable(w io.Writer, table controller.EmployeeTable) error {
	if table.Err != "" {
		fmt.Fprintln(w, table.Err)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tJOINING DATE")
	for _, row := range table.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.ID, row.Name, row.Department, row.JoiningDate)
	}
	return tw.Flush()
}

func printReport(w io.Writer, panel controller.ReportPanel) {
	if panel.Err != "" {
		fmt.Fprintln(w, panel.Err)
		return
	}
	fmt.Fprintln(w, panel.Text)
}
