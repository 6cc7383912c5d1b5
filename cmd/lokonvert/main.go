package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	lok "github.com/jacobtread/libreofficekit"
)

func main() {
	var (
		in          = flag.String("in", "", "Input document or directory")
		out         = flag.String("out", "", "Output file or directory (defaults next to the input)")
		format      = flag.String("format", "", "Target format (pdf, docx, ...)")
		filter      = flag.String("filter", "", "Filter options for the export filter")
		configPath  = flag.String("config", "", "Config file path (default "+DefaultConfigPath()+")")
		listFilters = flag.Bool("list-filters", false, "List the engine's document filters and exit")
		showVersion = flag.Bool("engine-version", false, "Print the engine version and exit")
		initConfig  = flag.Bool("init-config", false, "Write a default config file and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *initConfig {
		path := *configPath
		if path == "" {
			path = DefaultConfigPath()
		}
		if err := WriteDefaultConfig(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
		return
	}

	cfg, err := Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Convert.Format = *format
	}
	if *filter != "" {
		cfg.Convert.Filter = *filter
	}

	if *interactive {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	lok.SetLogger(log.Named("lok"))

	if *in == "" && !*listFilters && !*showVersion {
		fmt.Fprintln(os.Stderr, "Usage: lokonvert -in <document|dir> [-out path] [-format pdf] [-filter opts]")
		fmt.Fprintln(os.Stderr, "       lokonvert -list-filters | -engine-version | -init-config")
		fmt.Fprintln(os.Stderr, "       lokonvert -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(cfg, log, *in, *out, *listFilters, *showVersion); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildLogger constructs the zap logger described by the config section.
func buildLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

func run(cfg *Config, log *zap.Logger, in, out string, listFilters, showVersion bool) error {
	// The engine is non-reentrant and must stay on one OS thread for
	// the whole run.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if listFilters || showVersion {
		return runInspect(cfg, listFilters, showVersion)
	}

	conv, err := newConverter(cfg, log, terminalPrompt, nil)
	if err != nil {
		return err
	}
	defer conv.Close()

	info, err := os.Stat(in)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	if info.IsDir() {
		outDir := out
		if outDir == "" {
			outDir = in
		}
		fmt.Printf("Converting %s -> %s (%s)\n", in, outDir, cfg.Convert.Format)

		stats, err := conv.convertBatch(in, outDir)
		if err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		fmt.Printf("Converted %d, skipped %d, failed %d\n",
			stats.converted, stats.skipped, stats.failed)
		if stats.failed > 0 {
			return fmt.Errorf("%d conversion(s) failed", stats.failed)
		}
		return nil
	}

	outPath := out
	if outPath == "" {
		outPath = replaceExt(in, cfg.Convert.Format)
	}
	fmt.Printf("Converting %s -> %s\n", in, outPath)

	skipped, err := conv.convertFile(in, outPath)
	if err != nil {
		return err
	}
	if skipped {
		fmt.Println("Already converted, input unchanged.")
		return nil
	}
	fmt.Println("Done.")

	return nil
}

// runInspect answers -list-filters and -engine-version without touching
// the cache or the profile machinery.
func runInspect(cfg *Config, listFilters, showVersion bool) error {
	installPath, err := resolveInstall(cfg)
	if err != nil {
		return err
	}

	office, err := lok.New(installPath)
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer office.Close()

	if showVersion {
		info, err := office.VersionInfo()
		if err != nil {
			return fmt.Errorf("engine version: %w", err)
		}
		fmt.Printf("%s %s%s (build %s)\n",
			info.ProductName, info.ProductVersion, info.ProductExtension, info.BuildID)
	}

	if listFilters {
		filters, err := office.FilterTypes()
		if err != nil {
			return fmt.Errorf("list filters: %w", err)
		}

		names := make([]string, 0, len(filters))
		for name := range filters {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("Document filters:\n")
		for _, name := range names {
			fmt.Printf("  %-40s %s\n", name, filters[name].MediaType)
		}
	}

	return nil
}
