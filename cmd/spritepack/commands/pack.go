package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SpritePack/internal/engine"
	"github.com/piwi3910/SpritePack/internal/export"
	"github.com/piwi3910/SpritePack/internal/importer"
	"github.com/piwi3910/SpritePack/internal/model"
	"github.com/piwi3910/SpritePack/internal/project"
)

type packOptions struct {
	manifest string
	preview  string
	pdf      string
	labels   string
	xlsx     string
	job      string
	name     string
	list     bool
	timeout  time.Duration
}

func newPackCmd(a *app) *cobra.Command {
	opts := &packOptions{}
	cmd := &cobra.Command{
		Use:   "pack <input>",
		Short: "Pack the rects of a CSV, Excel, DXF or job file",
		Example: `  spritepack pack sprites.csv --manifest atlas.json --preview atlas.png
  spritepack pack icons.xlsx --hints MostlySquared --padding 1 --list
  spritepack pack ui.yaml --generations 40 --pdf report.pdf --job ui.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPack(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	addSettingsFlags(f)
	f.StringVarP(&opts.manifest, "manifest", "o", "", "Write the JSON manifest to this file")
	f.StringVar(&opts.preview, "preview", "", "Write a PNG preview to this file")
	f.Float64("scale", model.DefaultAppConfig().PreviewScale, "Pixels per unit in the PNG preview")
	f.StringVar(&opts.pdf, "pdf", "", "Write a PDF report to this file")
	f.StringVar(&opts.labels, "labels", "", "Write a PDF sheet of QR-coded frame labels to this file")
	f.StringVar(&opts.xlsx, "xlsx", "", "Write the placements to an Excel workbook")
	f.StringVar(&opts.job, "job", "", "Save the rects, settings and result as a job file (.json or .yaml)")
	f.StringVar(&opts.name, "name", "", "Job name (default: input file name)")
	f.BoolVarP(&opts.list, "list", "l", false, "Print every placement")
	f.DurationVar(&opts.timeout, "timeout", 0, "Give up after this long (0 = no limit)")
	return cmd
}

func (a *app) runPack(cmd *cobra.Command, input string, opts *packOptions) error {
	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	rects, settings, err := a.loadRects(cmd, input)
	if err != nil {
		return err
	}

	start := time.Now()
	packer := engine.New(settings, engine.WithLogger(a.logger))
	result, err := packer.Pack(ctx, rects)
	if err != nil {
		return fmt.Errorf("packing %s: %w", input, err)
	}
	a.logger.Debug("search finished", "elapsed", time.Since(start), "attempts", result.Attempts)

	meta := export.ManifestMeta{App: "spritepack", Version: Version}
	if opts.preview != "" {
		meta.Image = filepath.Base(opts.preview)
	}
	if err := a.writeOutputs(result, meta, opts); err != nil {
		return err
	}

	if opts.job != "" {
		name := opts.name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		}
		job := project.NewJob(name, rects, settings)
		job.Result = &result
		if err := project.SaveJob(opts.job, job); err != nil {
			return err
		}
		if err := project.RecordRecentJob(a.configPath(), opts.job); err != nil {
			a.logger.Warn("could not update recent jobs", "error", err)
		}
		a.logger.Info("saved job", "file", opts.job)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(result, opts.list))
	return nil
}

// loadRects reads job files directly and everything else through the
// importer. Rows the importer rejects are logged and skipped. A job packs with
// its saved settings, overridden only by flags given on the command line;
// other inputs use the configured settings.
func (a *app) loadRects(cmd *cobra.Command, path string) ([]model.Rect, model.Settings, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		job, err := project.LoadJob(path)
		if err != nil {
			return nil, model.Settings{}, err
		}
		if len(job.Rects) == 0 {
			return nil, model.Settings{}, fmt.Errorf("job %s has no rects", path)
		}
		settings := job.Settings
		for name, apply := range settingsFlags {
			if cmd.Flags().Changed(name) {
				apply(&settings, a.config.Settings)
			}
		}
		if err := settings.Validate(); err != nil {
			return nil, model.Settings{}, fmt.Errorf("invalid settings in job %s: %w", path, err)
		}
		a.logger.Info("loaded job", "file", path, "name", job.Name, "count", len(job.Rects))
		return job.Rects, settings, nil
	}

	res := importer.ImportFile(path)
	for _, w := range res.Warnings {
		a.logger.Debug("import warning", "file", path, "warning", w)
	}
	for _, e := range res.Errors {
		a.logger.Warn("skipped input", "file", path, "error", e)
	}
	if len(res.Rects) == 0 {
		if len(res.Errors) > 0 {
			return nil, model.Settings{}, fmt.Errorf("no rects imported from %s: %s", path, res.Errors[0])
		}
		return nil, model.Settings{}, fmt.Errorf("no rects imported from %s", path)
	}
	a.logger.Info("imported rects", "file", path, "count", len(res.Rects), "skipped", len(res.Errors))
	return res.Rects, a.config.Settings, nil
}

func (a *app) writeOutputs(result model.PackResult, meta export.ManifestMeta, opts *packOptions) error {
	outputs := []struct {
		path  string
		write func(string) error
	}{
		{opts.manifest, func(p string) error { return export.ExportManifest(p, result, meta) }},
		{opts.preview, func(p string) error { return export.ExportPreview(p, result, a.config.PreviewScale) }},
		{opts.pdf, func(p string) error { return export.ExportPDF(p, result, meta) }},
		{opts.labels, func(p string) error { return export.ExportLabels(p, result) }},
		{opts.xlsx, func(p string) error { return export.ExportExcel(p, result) }},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := out.write(out.path); err != nil {
			return fmt.Errorf("writing %s: %w", out.path, err)
		}
		a.logger.Info("wrote output", "file", out.path)
	}
	return nil
}
