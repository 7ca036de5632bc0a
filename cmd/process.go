package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sitecsp/internal/build"
	"github.com/conneroisu/sitecsp/internal/errors"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Embed a Content-Security-Policy into a single HTML document",
	Long: `Read an HTML document, generate its Content-Security-Policy and write the
result. The document is read from the given file, or from standard input when
the file is omitted or "-".

Examples:
  sitecsp process page.html               # Print the result to stdout
  sitecsp process page.html -o out.html   # Write the result to out.html
  sitecsp process -i page.html            # Rewrite page.html in place
  cat page.html | sitecsp process         # Read from stdin`,
	Aliases: []string{"p"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runProcess,
}

var (
	processOutput  string
	processInPlace bool
)

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "Write the result to this file")
	processCmd.Flags().BoolVarP(&processInPlace, "in-place", "i", false, "Rewrite the input file")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}
	if processInPlace && input == "-" {
		return errors.NewValidationError(errors.ErrCodeInvalidFlag, "--in-place requires a file argument")
	}
	if processInPlace && processOutput != "" {
		return errors.NewValidationError(errors.ErrCodeInvalidFlag, "--in-place and --output cannot be used together")
	}

	var content []byte
	if input == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(input)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}

	ctx := commandContext(cmd)
	gen := newGenerator(cfg, logger)

	dest := processOutput
	if processInPlace {
		dest = input
	}
	if dest == "" {
		out, err := gen.Run(ctx, string(content))
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	}

	writer := build.NewArtifactWriter(gen, build.WriterOptions{
		IsHTML:   func(string) bool { return true },
		Attempts: cfg.Build.WriteAttempts,
		Logger:   logger,
	})
	written, err := writer.Write(ctx, dest, content)
	if err != nil {
		return err
	}
	if !written {
		logger.Info(ctx, "Output already up to date", "path", dest)
	}
	return nil
}
