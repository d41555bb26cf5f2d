// Command jmapconv converts vCard and iCalendar files to JSContact and
// JSCalendar and back, without running the HTTP service.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/jscontact"
	"jmap-bridge/internal/mapper"
)

const (
	kindContact  = "contact"
	kindCalendar = "calendar"
)

// options are the flags shared by every subcommand.
type options struct {
	kind    string
	dialect string
	prodID  string
	debug   bool
}

func (o *options) validateKind() error {
	switch o.kind {
	case kindContact, kindCalendar:
		return nil
	default:
		return fmt.Errorf("--kind must be %q or %q, got %q", kindContact, kindCalendar, o.kind)
	}
}

func (o *options) mapperOptions() mapper.Options {
	return mapper.Options{
		Logger: logging.GetGlobalLogger(),
		ProdID: o.prodID,
	}
}

func (o *options) parseDialect() (jscontact.Dialect, error) {
	return jscontact.ParseDialect(o.dialect)
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "jmapconv",
		Short: "Convert between vCard/iCalendar and JSContact/JSCalendar",
		Long: `jmapconv converts vCard files to JSContact cards and iCalendar files to
JSCalendar events, and converts JSON back to the legacy formats.

Logs go to stderr; converted records go to stdout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.debug {
				level = "debug"
			}
			logger, err := logging.NewZapLogger(logging.LogConfig{
				Level:  logging.ParseLevel(level),
				Output: stderr,
				Format: logging.FormatConsole,
			})
			if err != nil {
				return err
			}
			logging.SetGlobalLogger(logger)
			return nil
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.kind, "kind", "k", kindContact, "record kind: contact or calendar")
	rootCmd.PersistentFlags().StringVarP(&opts.dialect, "dialect", "D", envOr("DEFAULT_DIALECT", string(jscontact.Standard)),
		"vCard dialect: "+strings.Join(dialectNames(), ", "))
	rootCmd.PersistentFlags().StringVar(&opts.prodID, "prodid", envOr("PRODID", mapper.DefaultProdID), "PRODID for records that carry none")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(newToJSONCmd(opts))
	rootCmd.AddCommand(newFromJSONCmd(opts))
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

func dialectNames() []string {
	names := make([]string, 0, len(jscontact.Dialects))
	for _, d := range jscontact.Dialects {
		names = append(names, string(d))
	}
	return names
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
