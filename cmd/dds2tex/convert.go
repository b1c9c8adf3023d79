package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/Faultbox/bullyae-tools/internal/config"
	"github.com/Faultbox/bullyae-tools/internal/logger"
	"github.com/Faultbox/bullyae-tools/pkg/formats"
)

const usageHint = "Insufficient arguments given. Use -h or --help to show valid arguments."

type options struct {
	input      string
	output     string
	configPath string
	overrides  config.Overrides
}

// convert rewrites opts.output from opts.input. Problems with the arguments
// or the two files are reported as one line on out and are not errors; the
// output file is only touched once everything has been validated.
func convert(opts options, out io.Writer) error {
	if opts.input == "" || opts.output == "" {
		fmt.Fprintln(out, usageHint)
		return nil
	}

	cfg, err := config.Load(opts.configPath, opts.overrides)
	if err != nil {
		fmt.Fprintln(out, err)
		return nil
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return cli.Exit(fmt.Sprintf("error: init logger: %v", err), 1)
	}

	dds, err := os.ReadFile(opts.input)
	if err != nil {
		fmt.Fprintln(out, describeReadError(err))
		return nil
	}
	existing, err := os.ReadFile(opts.output)
	if err != nil {
		fmt.Fprintln(out, describeReadError(err))
		return nil
	}

	img, err := formats.ParseDDS(dds)
	if err != nil {
		fmt.Fprintf(out, "Unsupported DDS input: %v\n", err)
		return nil
	}
	format, _, err := img.TEXPayload()
	if err != nil {
		fmt.Fprintf(out, "Unsupported DDS input: %v\n", err)
		return nil
	}

	logger.Debug("rebuilding texture",
		zap.String("input", opts.input),
		zap.String("output", opts.output),
		zap.Stringer("format", format),
		zap.Uint32("width", img.Header.Width),
		zap.Uint32("height", img.Header.Height),
		zap.Bool("compress", cfg.Convert.Compress),
		zap.Int("level", cfg.Convert.Level))

	data, err := formats.EncodeTEX(dds, existing, cfg.Convert.Compress,
		formats.WithCompressionLevel(cfg.Convert.Level))
	if err != nil {
		fmt.Fprintf(out, "Not a valid TEX format: %v\n", err)
		return nil
	}

	if err := writeFileAtomic(opts.output, data); err != nil {
		logger.Error("writing texture failed", zap.String("output", opts.output), zap.Error(err))
		return cli.Exit(fmt.Sprintf("error: write %s: %v", opts.output, err), 1)
	}

	logger.Info("texture updated",
		zap.String("output", opts.output),
		zap.Int("bytes", len(data)))
	fmt.Fprintf(out, "%s has been successfully updated!\n", filepath.Base(opts.output))
	return nil
}

func describeReadError(err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return fmt.Sprintf("The provided file couldn't be found: %s", pe.Path)
		}
		return "The provided file couldn't be found."
	}
	return err.Error()
}

// writeFileAtomic replaces path through a temp file in the same directory,
// keeping the original permissions.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
