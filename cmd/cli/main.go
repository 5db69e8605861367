package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/eternalApril/moonwire/internal/client"
	"github.com/eternalApril/moonwire/internal/meta"
)

var (
	// The host to connect to
	host string

	// The port to connect to
	port int

	// Round trip limit for a single command
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "moonwire-cli [command [arg ...]]",
	Short: "Send commands to a RESP server",
	Long: `Send commands to a RESP server

With arguments, sends them as one command and prints the reply.
Without arguments, reads one command per line from stdin.`,
	Version:       meta.GetInfo().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := net.JoinHostPort(host, strconv.Itoa(port))

		c, err := client.Dial(cmd.Context(), addr)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		if len(args) > 0 {
			return do(cmd.Context(), c, cmd.OutOrStdout(), args)
		}

		return repl(cmd.Context(), c, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&host, "host", "a", "127.0.0.1", "Server hostname")
	flags.IntVarP(&port, "port", "p", 6379, "Server port")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for a single command, 0 disables")

	// stop at the first command word so "moonwire-cli ECHO -x" sends -x
	flags.SetInterspersed(false)
}

func do(ctx context.Context, c *client.Client, w io.Writer, args []string) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	v, err := c.Do(ctx, args...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, v.String())
	return err
}

// repl runs one command per input line until EOF. Reply errors are printed,
// connection errors end the loop
func repl(ctx context.Context, c *client.Client, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for scanner.Scan() {
		args, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintln(w, "(error)", err) //nolint:errcheck
			continue
		}
		if len(args) == 0 {
			continue
		}

		if err := do(ctx, c, w, args); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
