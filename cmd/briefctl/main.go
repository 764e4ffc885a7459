// Command briefctl encodes, decodes and renders status briefs from the command line,
// producing the same output as the HTTP service for a given data parameter.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/status-brief-service/internal/canon"
	"github.com/kjstillabower/status-brief-service/internal/decode"
	"github.com/kjstillabower/status-brief-service/internal/display"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "briefctl: %v\n", err)
		os.Exit(1)
	}
}

// clockFlags are shared by the commands that derive fields from the local time.
type clockFlags struct {
	now string
	tz  string
}

func (f *clockFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.now, "now", "", "clock to render with, RFC3339 (default: current time)")
	cmd.Flags().StringVar(&f.tz, "tz", "UTC", "IANA timezone of the brief")
}

// resolve returns the render clock in the requested timezone.
func (f *clockFlags) resolve() (time.Time, error) {
	loc, err := time.LoadLocation(f.tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("--tz %q: %w", f.tz, err)
	}
	now := time.Now()
	if f.now != "" {
		if now, err = time.Parse(time.RFC3339, f.now); err != nil {
			return time.Time{}, fmt.Errorf("--now %q: %w", f.now, err)
		}
	}
	return now.In(loc), nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "briefctl",
		Short:         "Encode, decode and render status brief parameters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEncodeCmd(), newDecodeCmd(), newCanonCmd(), newDisplayCmd())
	return root
}

func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Encode a JSON document as a URL-safe data parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args, true)
			if err != nil {
				return err
			}
			if !json.Valid([]byte(in)) {
				return fmt.Errorf("input is not valid JSON")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), decode.Encode([]byte(in)))
			return err
		},
	}
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [param|-]",
		Short: "Decode a data parameter into its JSON document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := decodeArg(cmd, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), doc)
		},
	}
}

func newCanonCmd() *cobra.Command {
	var clock clockFlags
	cmd := &cobra.Command{
		Use:   "canon [param|-]",
		Short: "Print the canonical brief and the recognised shape",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := clock.resolve()
			if err != nil {
				return err
			}
			doc, err := decodeArg(cmd, args)
			if err != nil {
				return err
			}
			brief, shape := canon.CanonicalizeShape(doc, now)
			return writeJSON(cmd.OutOrStdout(), map[string]any{"brief": brief, "shape": shape})
		},
	}
	clock.register(cmd)
	return cmd
}

func newDisplayCmd() *cobra.Command {
	var clock clockFlags
	cmd := &cobra.Command{
		Use:   "display [param|-]",
		Short: "Print the display strings for a brief",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := clock.resolve()
			if err != nil {
				return err
			}
			doc, err := decodeArg(cmd, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), display.Build(canon.Canonicalize(doc, now), now))
		},
	}
	clock.register(cmd)
	return cmd
}

// readInput returns the command input: the named file (asFile) or literal argument, or
// stdin when the argument is "-" or absent.
func readInput(cmd *cobra.Command, args []string, asFile bool) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	if !asFile {
		return args[0], nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(b)), nil
}

func decodeArg(cmd *cobra.Command, args []string) (any, error) {
	in, err := readInput(cmd, args, false)
	if err != nil {
		return nil, err
	}
	return decode.Decode(in)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
