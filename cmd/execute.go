// Package cmd implements the command-line interface and orchestration logic
// for nightlyprep. It checks every precondition first, then promotes the
// release files and rewrites the plugin configuration, and finally writes
// the run report.
package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/afero"

	"nightlyprep/internal/backup"
	"nightlyprep/internal/config"
	"nightlyprep/internal/errors"
	"nightlyprep/internal/log"
	"nightlyprep/internal/promote"
	"nightlyprep/internal/rewrite"
)

func executePrep(ctx context.Context, cfg *config.Config, fsys afero.Fs, out io.Writer) (err error) {
	startTime := time.Now()
	lgr := log.FromContext(ctx).WithValues(log.DirectoryKey, cfg.Directory)

	var reporter *log.Logger
	if cfg.LogFile == "" {
		reporter = log.NewLoggerWithWriter(cfg, out)
	} else {
		reporter, err = log.NewLogger(fsys, cfg)
		if err != nil {
			return err
		}
	}
	defer reporter.Close()

	// The report is written on success and on failure.
	defer func() {
		reporter.SetProcessingTime(time.Since(startTime))
		if reportErr := reporter.WriteReport(); reportErr != nil && err == nil {
			err = reportErr
		}
	}()

	fail := func(step, path string, stepErr error) error {
		lgr.Error(stepErr, "step failed", log.StepKey, step)
		reporter.LogError(step, path, stepErr)
		return &errors.StepError{Step: step, Err: stepErr}
	}

	promoter := promote.NewPromoter(fsys, cfg.Directory)
	promotions := promote.DefaultPromotions()
	engine := rewrite.NewEngine(rewrite.Rules{
		Name:          cfg.NightlyName,
		VersionSuffix: cfg.VersionSuffix,
	})
	pluginPath := cfg.PluginPath()

	lgr.V(1).Info("checking preconditions")
	planned, err := promoter.Plan(promotions)
	if err != nil {
		return fail(log.StepPromotion, "", err)
	}
	plan, err := engine.Plan(fsys, pluginPath)
	if err != nil {
		return fail(log.StepRewrite, pluginPath, err)
	}

	if cfg.DryRun {
		for _, r := range planned {
			reporter.LogPromotion(r)
		}
		reporter.LogRewrite(plan, "", false)
		lgr.Info("dry run complete, no files changed")
		return nil
	}

	results, err := promoter.Promote(promotions)
	for _, r := range results {
		lgr.V(1).Info("promoted release variant", log.PathKey, r.Current)
		reporter.LogPromotion(r)
	}
	if err != nil {
		return fail(log.StepPromotion, "", err)
	}

	// A safety copy is always taken so a failed write can be undone. It is
	// only kept when --backup asks for it.
	backups := backup.NewBackupManager(fsys)
	backupPath, err := backups.BackupFile(pluginPath)
	if err != nil {
		return fail(log.StepRewrite, pluginPath, err)
	}

	result, err := engine.RewriteFile(fsys, pluginPath)
	if err != nil {
		if restoreErr := backups.RestoreFile(pluginPath, backupPath); restoreErr != nil {
			lgr.Error(restoreErr, "restoring plugin configuration failed", log.PathKey, pluginPath)
		}
		return fail(log.StepRewrite, pluginPath, err)
	}
	if !cfg.Backup {
		if cleanupErr := backups.CleanupBackup(backupPath); cleanupErr != nil {
			lgr.Error(cleanupErr, "removing safety copy failed", log.PathKey, backupPath)
		}
		backupPath = ""
	}
	reporter.LogRewrite(result, backupPath, true)
	if result.AlreadySuffixed {
		lgr.Info("version already carried the suffix", log.PathKey, pluginPath)
	}

	lgr.Info("nightly preparation complete", log.PathKey, pluginPath)
	return nil
}
