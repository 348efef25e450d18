package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colgrid/colgrid/pkg/arrowtab"
	"github.com/colgrid/colgrid/pkg/backend"
	"github.com/colgrid/colgrid/pkg/coltypes"
	"github.com/colgrid/colgrid/pkg/config"
	"github.com/colgrid/colgrid/pkg/json"
	"github.com/colgrid/colgrid/pkg/logger"
	"github.com/colgrid/colgrid/pkg/partition"
	"github.com/colgrid/colgrid/pkg/platform"
	"github.com/colgrid/colgrid/pkg/table"
	"github.com/colgrid/colgrid/pkg/transcode"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "colgrid",
		Short: "colgrid - column-type transcoding for tabular data",
		Long: `colgrid normalizes exotic column types (nested objects, arrays,
opaque identifiers) across tabular backends so values can be serialized
for storage, deserialized back, and cast between type systems.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("colgrid v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newTranscodeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTranscodeCmd() *cobra.Command {
	var (
		configPath string
		inputPath  string
		outputPath string
		decode     bool
	)

	cmd := &cobra.Command{
		Use:   "transcode",
		Short: "Serialize or deserialize exotic columns in a JSONL table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if err := logger.Init(logger.Config{
				Level:       cfg.Logging.Level,
				Development: cfg.Logging.Development,
				Encoding:    cfg.Logging.Encoding,
			}); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			platform.WarnMissingRepoPath(cfg.RepoPath)

			return runTranscode(cmd.Context(), cfg, inputPath, outputPath, decode)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colgrid.yaml", "path to the config file")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "input JSONL file (- for stdin)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "-", "output JSONL file (- for stdout)")
	cmd.Flags().BoolVar(&decode, "decode", false, "deserialize instead of serialize")

	return cmd
}

func runTranscode(ctx context.Context, cfg *config.Config, inputPath, outputPath string, decode bool) error {
	columnTypes := coltypes.ColumnTypes(cfg.ColumnTypes)

	var fn coltypes.RowFunc
	switch {
	case decode && transcode.ShouldDeserialize(columnTypes):
		fn = func(row coltypes.Row) (coltypes.Row, error) {
			return transcode.DeserializeRow(row, columnTypes)
		}
	case !decode && transcode.ShouldSerialize(columnTypes):
		fn = func(row coltypes.Row) (coltypes.Row, error) {
			return transcode.SerializeRow(row, columnTypes)
		}
	}

	columns, rows, err := readRows(inputPath)
	if err != nil {
		return err
	}
	logger.Info("table loaded",
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(columns)),
		zap.String("backend", cfg.Backend))

	out, err := process(ctx, cfg, columns, rows, columnTypes, fn, decode)
	if err != nil {
		return err
	}
	return writeRows(outputPath, out)
}

// process routes the rows through the configured backend. fn may be
// nil when the column-type table needs no transcoding at all; casting
// still runs on the decode path.
func process(ctx context.Context, cfg *config.Config, columns []string, rows []coltypes.Row,
	columnTypes coltypes.ColumnTypes, fn coltypes.RowFunc, decode bool) ([]coltypes.Row, error) {

	if cfg.Partitioned {
		tbl, err := table.FromRows(columns, rows)
		if err != nil {
			return nil, err
		}
		pt := partition.FromTable(tbl)
		logger.Info("partitioned table", zap.Int("partitions", pt.NumPartitions()))

		if fn != nil {
			if pt, err = partition.BuildPlan(pt, fn).Execute(ctx); err != nil {
				return nil, err
			}
		}
		merged := pt.Collect()
		if decode {
			merged.CastNumericColumns(columnTypes)
		}
		return merged.Rows(), nil
	}

	var b backend.Backend
	switch cfg.Backend {
	case config.BackendArrow:
		tbl, err := arrowtab.FromRows(columns, rows)
		if err != nil {
			return nil, err
		}
		defer tbl.Release()
		b = tbl
	default:
		tbl, err := table.FromRows(columns, rows)
		if err != nil {
			return nil, err
		}
		b = tbl
	}

	if fn != nil {
		applied, err := b.ApplyRowFunction(fn)
		if err != nil {
			return nil, err
		}
		b = applied
	}
	if decode {
		b.CastNumericColumns(columnTypes)
	}

	out := make([]coltypes.Row, b.NumRows())
	for i := range out {
		out[i] = b.Row(i)
	}
	return out, nil
}

// readRows loads a JSONL table, collecting column names in first-seen
// order across all rows.
func readRows(path string) ([]string, []coltypes.Row, error) {
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		in = f
	}

	var (
		columns []string
		seen    = map[string]struct{}{}
		rows    []coltypes.Row
	)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		decoded, err := json.DecodeValue(string(line))
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", len(rows)+1, err)
		}
		row, ok := decoded.(map[string]interface{})
		if !ok {
			return nil, nil, fmt.Errorf("line %d: expected a JSON object", len(rows)+1)
		}
		for name := range row {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				columns = append(columns, name)
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return columns, rows, nil
}

func writeRows(path string, rows []coltypes.Row) error {
	out := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	for _, row := range rows {
		// The codec in pkg/json keeps NaN and high-precision decimals
		// survivable on the way out, same as inside the transcoder.
		encoded, err := json.EncodeValue(row, nil)
		if err != nil {
			return err
		}
		if _, err := w.WriteString(encoded + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
