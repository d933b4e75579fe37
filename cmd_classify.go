package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	httpadapter "triage_server/adapter/in/http"
	"triage_server/core/port/in"
	"triage_server/internal/bootstrap"
	"triage_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var classifyOpts struct {
	base64          bool
	confidence      float64
	detailed        bool
	includeResponse bool
}

var classifyCmd = &cobra.Command{
	Use:   "classify <file|->",
	Short: "Classify a local email file (text or PDF)",
	Long: `Run the classification pipeline on a local file, or on stdin when the
argument is "-". Raw files are sent base64 encoded; pass --base64 when the
input already is.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		bootstrap.InitLogger(cfg, "triage-cli")
		if err := cfg.MissingCredentials(); err != nil {
			return writeFailure(cmd.OutOrStdout(), err)
		}

		input := classifyInput(raw, classifyOpts.base64)
		input.Confidence = classifyOpts.confidence
		input.Detailed = classifyOpts.detailed
		input.IncludeResponse = classifyOpts.includeResponse

		deps := bootstrap.NewDependencies(cfg)
		out, err := deps.Service.Classify(cmd.Context(), input)

		opts := httpadapter.ClassifyOptions{
			Confidence:      classifyOpts.confidence,
			Detailed:        classifyOpts.detailed,
			IncludeResponse: classifyOpts.includeResponse,
		}
		if err != nil {
			var appErr *apperr.AppError
			if out != nil && errors.As(err, &appErr) && appErr.Code == apperr.CodeClassificationFailed {
				_ = writeJSON(cmd.OutOrStdout(), httpadapter.NewClassifyFailure(out, appErr, opts))
				return err
			}
			return writeFailure(cmd.OutOrStdout(), err)
		}

		return writeJSON(cmd.OutOrStdout(), httpadapter.NewClassifyResponse(out, opts, uuid.NewString(), cfg.PreviewChars))
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyOpts.base64, "base64", false, "input is already base64 encoded")
	classifyCmd.Flags().Float64Var(&classifyOpts.confidence, "confidence", 0, "confidence level 0-1 (higher is more conservative)")
	classifyCmd.Flags().BoolVar(&classifyOpts.detailed, "detailed", false, "ask for a justification and confidence score")
	classifyCmd.Flags().BoolVar(&classifyOpts.includeResponse, "include-response", false, "ask for a suggested reply")
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// classifyInput builds the pipeline input the way the HTTP surface receives
// it: raw bytes travel base64 encoded so PDFs survive as-is.
func classifyInput(raw []byte, alreadyEncoded bool) in.ClassifyInput {
	if alreadyEncoded {
		return in.ClassifyInput{Body: string(raw), IsBase64Encoded: true}
	}
	return in.ClassifyInput{
		Body:            base64.StdEncoding.EncodeToString(raw),
		IsBase64Encoded: true,
	}
}

func writeFailure(w io.Writer, err error) error {
	appErr := apperr.AsAppError(err)
	body := map[string]any{"erro": appErr.Message}
	for k, v := range appErr.Details {
		body[k] = v
	}
	_ = writeJSON(w, body)
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
