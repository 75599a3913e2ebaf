package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/costing-forecast/internal/compare"
	"github.com/iwvelando/costing-forecast/internal/config"
	"github.com/iwvelando/costing-forecast/internal/export"
	"github.com/iwvelando/costing-forecast/internal/forecast"
	"github.com/iwvelando/costing-forecast/internal/store"
	"github.com/iwvelando/costing-forecast/pkg/constants"
	"github.com/iwvelando/costing-forecast/pkg/logging"
	"github.com/iwvelando/costing-forecast/pkg/output"
	"github.com/iwvelando/costing-forecast/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env file is fine, COSTING_* variables may come from the shell.
	_ = godotenv.Load()

	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	simulate := flag.Bool("simulate", false, "run the volume and cost simulation regardless of configuration")
	persist := flag.Bool("persist", false, "record every computed snapshot in the configured storage")
	exportPath := flag.String("export", "", "write an xlsx workbook per snapshot to this path")
	comparePair := flag.String("compare", "", "compare two stored reports given as base,other")
	listReports := flag.Bool("list-reports", false, "list stored reports and exit")
	flag.Parse()

	if err := validation.ValidateLogLevel(*logLevel); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid log level\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	if *listReports || *comparePair != "" {
		if err := runStoredReports(ctx, logger, conf.Storage, *listReports, *comparePair); err != nil {
			logger.Fatal("failed to read stored reports",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *exportPath != "" {
		if err := validation.ValidateExportPath(*exportPath); err != nil {
			logger.Fatal(err.Error(),
				zap.String("op", "main"),
			)
		}
	}

	if *simulate {
		conf.Simulation.Enabled = true
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	results, err := forecast.GetForecast(logger, *conf)
	if err != nil {
		logger.Fatal("failed to compute forecast",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	for _, result := range results {
		if result.Results.TraditionalErr != nil {
			logger.Warn("traditional statement unavailable",
				zap.String("op", "main"),
				zap.String("scenario", result.Name),
				zap.Error(result.Results.TraditionalErr),
			)
		}
	}

	err = deliver(ctx, logger, os.Stdout, conf.Storage, results, deliveryOptions{
		outputFormat: outputFormat,
		persist:      *persist,
		exportPath:   *exportPath,
	})
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

type deliveryOptions struct {
	outputFormat string
	persist      bool
	exportPath   string
}

// deliver prints results, then records and exports them. Only a failure to
// print is returned; persistence and export failures are logged because the
// computed results are already out.
func deliver(ctx context.Context, logger *zap.Logger, w io.Writer, storage config.StorageConfig, results []forecast.Forecast, opts deliveryOptions) error {
	switch opts.outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(w, results)
	case constants.OutputFormatCSV:
		if err := output.CsvFormat(w, results); err != nil {
			return err
		}
	}

	if opts.persist {
		if err := persistResults(ctx, logger, storage, results); err != nil {
			logger.Error("failed to persist reports",
				zap.String("op", "main.deliver"),
				zap.Error(err),
			)
		}
	}

	if opts.exportPath != "" {
		for _, result := range results {
			path := exportFilePath(opts.exportPath, result.Name, len(results))
			if err := export.SaveWorkbook(path, export.FromForecast(result)); err != nil {
				logger.Error("failed to export workbook",
					zap.String("op", "main.deliver"),
					zap.String("path", path),
					zap.Error(err),
				)
				continue
			}
			logger.Info("exported workbook",
				zap.String("op", "main.deliver"),
				zap.String("scenario", result.Name),
				zap.String("path", path),
			)
		}
	}
	return nil
}

func openStore(ctx context.Context, logger *zap.Logger, storage config.StorageConfig) (*store.Store, error) {
	if err := validation.ValidateStorageDriver(storage.Driver); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, logger, storage.Driver, storage.DSN)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func runStoredReports(ctx context.Context, logger *zap.Logger, storage config.StorageConfig, list bool, pair string) error {
	st, err := openStore(ctx, logger, storage)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	if list {
		reports, err := st.ListReports(ctx)
		if err != nil {
			return err
		}
		output.PrettyReports(os.Stdout, reports)
	}

	if pair == "" {
		return nil
	}
	baseID, otherID, err := validation.ParseComparePair(pair)
	if err != nil {
		return err
	}
	base, err := st.GetReport(ctx, baseID)
	if err != nil {
		return err
	}
	other, err := st.GetReport(ctx, otherID)
	if err != nil {
		return err
	}
	comparison, err := compare.Compare(base, other)
	if err != nil {
		return err
	}
	output.PrettyComparison(os.Stdout, comparison)
	return nil
}

func persistResults(ctx context.Context, logger *zap.Logger, storage config.StorageConfig, results []forecast.Forecast) error {
	st, err := openStore(ctx, logger, storage)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	recorder := store.NewRecorder(logger, st, max(len(results), constants.DefaultRecorderQueueSize))
	for _, result := range results {
		id, ok := recorder.Submit(store.NewSnapshot(result.Name, result.GeneratedAt, result.Results))
		if !ok {
			logger.Warn("report dropped",
				zap.String("op", "main"),
				zap.String("scenario", result.Name),
			)
			continue
		}
		logger.Info("report queued",
			zap.String("op", "main"),
			zap.String("scenario", result.Name),
			zap.String("reportID", id),
		)
	}
	// Close drains the queue before the store is closed.
	return recorder.Close()
}

// exportFilePath appends the scenario name to path when several workbooks
// are written.
func exportFilePath(path, scenario string, count int) string {
	if count <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".xlsx"
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	slug := strings.ToLower(strings.Join(strings.Fields(scenario), "-"))
	return fmt.Sprintf("%s-%s%s", base, slug, ext)
}
