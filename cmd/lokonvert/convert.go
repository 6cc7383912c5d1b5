package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/term"

	lok "github.com/jacobtread/libreofficekit"
	lokerrors "github.com/jacobtread/libreofficekit/errors"
	"github.com/jacobtread/libreofficekit/install"
	"github.com/jacobtread/libreofficekit/urls"
)

// promptFunc asks the user for the password of the document at url.
// Returning ok=false declines the request and the load fails cleanly.
type promptFunc func(url string) (password string, ok bool)

// converter owns a running engine plus the optional conversion cache.
// The engine is not reentrant, so the goroutine that calls newConverter
// must lock its OS thread and keep every converter call on it.
type converter struct {
	office     *lok.Office
	cache      *convertCache
	cfg        *Config
	log        *zap.Logger
	prompt     promptFunc
	progress   func(percent int)
	profileDir string
}

type batchStats struct {
	converted int
	skipped   int
	failed    int
}

// resolveInstall returns the configured installation path or discovers one.
func resolveInstall(cfg *Config) (string, error) {
	if cfg.InstallPath != "" {
		return cfg.InstallPath, nil
	}
	path, err := install.Discover()
	if err != nil {
		return "", fmt.Errorf("locate LibreOffice: %w", err)
	}
	return path, nil
}

// newConverter starts the engine and wires the password and progress
// callbacks. progress may be nil.
func newConverter(cfg *Config, log *zap.Logger, prompt promptFunc, progress func(percent int)) (*converter, error) {
	installPath, err := resolveInstall(cfg)
	if err != nil {
		return nil, err
	}

	c := &converter{cfg: cfg, log: log, prompt: prompt, progress: progress}

	var office *lok.Office
	if cfg.Convert.IsolateProfile {
		c.profileDir = filepath.Join(os.TempDir(), "lokonvert-"+uuid.NewString())
		if err := os.MkdirAll(c.profileDir, 0o700); err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
		profileURL, err := urls.FromAbsolutePath(c.profileDir)
		if err != nil {
			_ = os.RemoveAll(c.profileDir)
			return nil, err
		}
		office, err = lok.NewWithProfile(installPath, profileURL.String())
		if err != nil {
			_ = os.RemoveAll(c.profileDir)
			return nil, fmt.Errorf("start engine: %w", err)
		}
		c.office = office
	} else {
		office, err = lok.New(installPath)
		if err != nil {
			return nil, fmt.Errorf("start engine: %w", err)
		}
		c.office = office
	}

	if err := office.RegisterEventHandler(c.handleEvent); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("register event handler: %w", err)
	}

	if _, err := office.SetOptionalFeatures(lok.FeatureDocumentPassword, lok.FeatureDocumentPasswordToModify); err != nil {
		var lokErr *lokerrors.Error
		if errors.As(err, &lokErr) && lokErr.Kind == lokerrors.KindMissingFunction {
			log.Debug("engine predates password prompts, encrypted documents will fail to load")
		} else {
			_ = c.Close()
			return nil, fmt.Errorf("enable password prompts: %w", err)
		}
	}

	if cfg.Cache.Enabled {
		cache, err := openCache(cfg.Cache.Path, cfg.Cache.Options)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.cache = cache
	}

	return c, nil
}

// Close tears down the engine, the cache and the throwaway profile.
func (c *converter) Close() error {
	var firstErr error
	if c.cache != nil {
		firstErr = c.cache.Close()
	}
	if c.office != nil {
		if err := c.office.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.profileDir != "" {
		if err := os.RemoveAll(c.profileDir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// handleEvent runs on the engine thread inside a blocking load or save.
func (c *converter) handleEvent(office lok.CallbackOffice, ty lok.CallbackType, payload string) {
	switch ty {
	case lok.CallbackDocumentPassword, lok.CallbackDocumentPasswordModify:
		c.answerPassword(office, payload)
	case lok.CallbackStatusIndicatorSetValue:
		if c.progress != nil {
			if pct, err := strconv.Atoi(payload); err == nil {
				c.progress(pct)
			}
		}
	}
}

// answerPassword resolves a password request: configured passwords win,
// then the interactive prompt, and with neither the request is declined
// so the load fails instead of hanging.
func (c *converter) answerPassword(office lok.CallbackOffice, payload string) {
	url, err := urls.Parse(payload)
	if err != nil {
		c.log.Warn("password request for unparseable URL",
			zap.String("payload", payload), zap.Error(err))
		return
	}

	if password, ok := c.cfg.Passwords[payload]; ok {
		c.log.Debug("supplying configured password", zap.String("url", payload))
		if err := office.SetDocumentPassword(url, password); err != nil {
			c.log.Warn("failed to supply password", zap.Error(err))
		}
		return
	}

	if c.prompt != nil {
		if password, ok := c.prompt(payload); ok {
			if err := office.SetDocumentPassword(url, password); err != nil {
				c.log.Warn("failed to supply password", zap.Error(err))
			}
			return
		}
	}

	if err := office.DeclineDocumentPassword(url); err != nil {
		c.log.Warn("failed to decline password request", zap.Error(err))
	}
}

// convertFile loads inputPath and exports it to outputPath in the
// configured format. It reports skipped=true when the cache shows the
// input unchanged since its last conversion.
//
// The export goes to a temporary name first so a failed save never
// leaves a truncated file at the destination.
func (c *converter) convertFile(inputPath, outputPath string) (skipped bool, err error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return false, fmt.Errorf("stat input: %w", err)
	}

	format := c.cfg.Convert.Format

	if c.cache != nil {
		prev, hit, err := c.cache.Lookup(inputPath, info, format)
		if err != nil {
			c.log.Warn("cache lookup failed", zap.Error(err))
		} else if hit {
			if _, err := os.Stat(prev); err == nil {
				c.log.Debug("input unchanged since last conversion",
					zap.String("input", inputPath), zap.String("output", prev))
				return true, nil
			}
		}
	}

	inURL, err := urls.Parse(inputPath)
	if err != nil {
		return false, err
	}

	doc, err := c.office.LoadDocument(inURL)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", inputPath, err)
	}
	defer doc.Close()

	absOut, err := filepath.Abs(outputPath)
	if err != nil {
		return false, err
	}
	tmpPath := absOut + "." + uuid.NewString() + ".part"
	tmpURL, err := urls.FromAbsolutePath(tmpPath)
	if err != nil {
		return false, err
	}

	if err := doc.SaveAs(tmpURL, format, c.cfg.Convert.Filter); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf("save %s: %w", outputPath, err)
	}

	if err := os.Rename(tmpPath, absOut); err != nil {
		return false, fmt.Errorf("finalize output: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Record(inputPath, info, format, outputPath); err != nil {
			c.log.Warn("cache record failed", zap.Error(err))
		}
	}

	return false, nil
}

// convertBatch walks inDir and converts every regular file into the
// mirrored location under outDir. Dotfiles and files already in the
// target format are left alone. Individual failures are logged and
// counted rather than aborting the walk.
func (c *converter) convertBatch(inDir, outDir string) (batchStats, error) {
	var stats batchStats
	format := c.cfg.Convert.Format

	err := filepath.WalkDir(inDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if strings.EqualFold(strings.TrimPrefix(filepath.Ext(path), "."), format) {
			return nil
		}

		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, replaceExt(rel, format))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}

		skipped, err := c.convertFile(path, outPath)
		switch {
		case err != nil:
			stats.failed++
			c.log.Error("conversion failed", zap.String("input", path), zap.Error(err))
		case skipped:
			stats.skipped++
		default:
			stats.converted++
			c.log.Info("converted", zap.String("input", path), zap.String("output", outPath))
		}
		return nil
	})

	return stats, err
}

// replaceExt swaps the path's extension for the target format.
func replaceExt(path, format string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + format
}

// terminalPrompt reads a password from the controlling terminal without
// echo. A non-terminal stdin declines so unattended runs never hang.
func terminalPrompt(url string) (string, bool) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", false
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", url)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", false
	}

	return string(password), true
}
