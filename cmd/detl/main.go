package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"detl/config"
	"detl/dataframe"
)

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:           "detl",
		Short:         "Run declarative tabular ETL configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := zap.NewDevelopmentConfig()
			if !verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			zap.ReplaceGlobals(logger)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Execute a configuration, writing every export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromPath(args[0])
			if err != nil {
				return err
			}
			return cfg.Run()
		},
	}

	var limit int
	showCmd := &cobra.Command{
		Use:   "show <config>",
		Short: "Load a configuration without exporting and print a preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromPath(args[0])
			if err != nil {
				return err
			}
			lf, err := cfg.Load()
			if err != nil {
				return err
			}
			df, err := lf.Collect()
			if err != nil {
				return err
			}
			total := df.Height()
			if limit > 0 {
				df = df.Head(limit)
			}
			printTable(df)
			if df.Height() < total {
				fmt.Printf("(%d of %d rows)\n", df.Height(), total)
			}
			return nil
		},
	}
	showCmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum rows to print (0 for all)")

	dumpSchemaCmd := &cobra.Command{
		Use:   "dump-schema <path>",
		Short: "Write the JSON schema of the configuration format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(config.Schema(), "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], append(data, '\n'), 0o644)
		},
	}

	inferSchemaCmd := &cobra.Command{
		Use:   "infer-schema <config>",
		Short: "Collect the plan and print the resulting column types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromPath(args[0])
			if err != nil {
				return err
			}
			lf, err := cfg.Load()
			if err != nil {
				return err
			}
			df, err := lf.Collect()
			if err != nil {
				return err
			}
			// printed as a schema block ready to paste into a source
			fmt.Println("schema:")
			for _, f := range df.InferSchema() {
				fmt.Printf("  %s: %s\n", f.Name, f.Type)
			}
			return nil
		},
	}

	root.AddCommand(runCmd, showCmd, dumpSchemaCmd, inferSchemaCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printTable(df *dataframe.DataFrame) {
	if len(df.Columns) == 0 {
		return
	}

	widths := make([]int, len(df.Columns))
	for i, col := range df.Columns {
		widths[i] = len(col)
	}

	cells := make([][]string, len(df.Rows))
	for i, row := range df.Rows {
		cells[i] = make([]string, len(df.Columns))
		for j := range df.Columns {
			if j < len(row.Values) {
				cells[i][j] = row.Values[j].AsString()
			} else {
				cells[i][j] = "null"
			}
			if len(cells[i][j]) > widths[j] {
				widths[j] = len(cells[i][j])
			}
		}
	}

	headerParts := make([]string, len(df.Columns))
	for i, col := range df.Columns {
		headerParts[i] = padRight(col, widths[i])
	}
	fmt.Println(strings.Join(headerParts, " | "))

	sepParts := make([]string, len(df.Columns))
	for i := range df.Columns {
		sepParts[i] = strings.Repeat("-", widths[i])
	}
	fmt.Println(strings.Join(sepParts, "-+-"))

	for _, row := range cells {
		parts := make([]string, len(df.Columns))
		for i := range df.Columns {
			parts[i] = padRight(row[i], widths[i])
		}
		fmt.Println(strings.Join(parts, " | "))
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
