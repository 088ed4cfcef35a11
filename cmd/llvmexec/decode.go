package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"llvmexec/internal/bitcode"
	"llvmexec/internal/diag"
)

var decodeCmd = &cobra.Command{
	Use:   "decode RECORDS",
	Short: "Decode a textual constant-record stream and list its symbols",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

func init() {
	decodeCmd.Flags().Bool("materialize", true, "print each symbol as an IR constant")
}

func runDecode(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err) }()

	path := args[0]
	st, err := bitcode.ParseRecordsFile(path)
	if err != nil {
		return err
	}
	syms := bitcode.NewSymbols()
	dec, decodeErr := st.Decode(syms)

	maxDiags, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	bag := diag.NewBag(maxDiags)
	r := diag.BagReporter{Bag: bag}
	if dec != nil {
		for _, id := range dec.Placeholders() {
			diag.Warning(r, diag.WarnBitcodePlaceholder, "record "+id.String(), "decoded as a placeholder symbol")
		}
	}
	if decodeErr != nil {
		r.Report(diag.New(diag.SevError, diag.ErrDecodeFailed, path, decodeErr.Error()))
	}

	materialize, _ := cmd.Flags().GetBool("materialize")
	listSymbols(cmd.OutOrStdout(), syms, materialize)
	printFileDiagnostics(cmd.ErrOrStderr(), path, bag.Items())
	if decodeErr != nil {
		return fmt.Errorf("%s: %w", path, decodeErr)
	}
	return nil
}

func listSymbols(w io.Writer, syms *bitcode.Symbols, materialize bool) {
	for i := range syms.Len() {
		sym, _ := syms.At(i)
		switch {
		case sym.Placeholder:
			fmt.Fprintf(w, "#%d placeholder %s\n", i, sym.Type)
		case sym.Value != nil:
			fmt.Fprintf(w, "#%d value %s\n", i, sym.Value.Ident())
		default:
			line := fmt.Sprintf("#%d %s %s", i, sym.Const.Kind, sym.Type)
			if materialize {
				if c, err := syms.Materialize(i); err != nil {
					line += " ; " + err.Error()
				} else {
					line += " = " + c.Ident()
				}
			}
			fmt.Fprintln(w, line)
		}
	}
}
