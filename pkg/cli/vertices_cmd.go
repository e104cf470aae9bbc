package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"smartifier/internal/config"
	"smartifier/internal/record"
	"smartifier/internal/vertex"
)

func newVerticesCmd(logger func() *slog.Logger) *cobra.Command {
	var (
		input      string
		output     string
		typ        string
		separator  string
		quoteChar  string
		smartAttr  string
		smartValue string
		smartIndex int
		smartDef   string
		writeKey   bool
		keyValue   string
	)

	cmd := &cobra.Command{
		Use:   "vertices",
		Short: "Rewrite a vertex file so keys carry the smart graph attribute",
		Long:  "Streams a vertex file (CSV or JSONL) and prefixes every _key with the value of the smart graph attribute, adding the attribute column when it is missing.",
		Example: `  # Prefix _key with the existing smart_id column
  smartifier vertices --input profiles.csv --output profiles.smart.csv

  # Derive the smart value from the first two characters of the country column
  smartifier vertices --input profiles.jsonl --output profiles.smart.jsonl \
    --type jsonl --smart-graph-attribute region --smart-value country --smart-index 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := record.ParseFormat(typ)
			if err != nil {
				return err
			}
			sep, err := config.ParseChar("separator", separator)
			if err != nil {
				return err
			}
			quote, err := config.ParseChar("quote-char", quoteChar)
			if err != nil {
				return err
			}
			opts := config.VertexOptions{
				Input:          input,
				Output:         output,
				Format:         format,
				CSV:            config.CSVOptions{Separator: sep, Quote: quote},
				SmartAttribute: smartAttr,
				SmartValue:     smartValue,
				SmartIndex:     smartIndex,
				SmartDefault:   smartDef,
				WriteKey:       writeKey,
				KeyValue:       keyValue,
			}
			return vertex.New(opts, logger()).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input vertex file (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required)")
	cmd.Flags().StringVarP(&typ, "type", "t", "csv", "Input format (csv, jsonl)")
	cmd.Flags().StringVar(&separator, "separator", ",", "CSV field separator")
	cmd.Flags().StringVar(&quoteChar, "quote-char", `"`, "CSV quote character")
	cmd.Flags().StringVarP(&smartAttr, "smart-graph-attribute", "a", "smart_id", "Name of the smart graph attribute")
	cmd.Flags().StringVar(&smartValue, "smart-value", "", "Column or attribute the smart value is taken from")
	cmd.Flags().IntVar(&smartIndex, "smart-index", 0, "Use only this many leading characters of the smart value (0 = all)")
	cmd.Flags().StringVar(&smartDef, "smart-default", "", "Fallback smart value when the attribute is absent (jsonl only)")
	cmd.Flags().BoolVar(&writeKey, "write-key", false, "Add a _key column when the input has none")
	cmd.Flags().StringVar(&keyValue, "key-value", "", "Column or attribute supplying the key suffix")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
