package setup

import (
	"context"
	"fmt"
	"io"

	"github.com/samnang/facecheck/internal/config"
)

// Options controls which setup phases run.
type Options struct {
	SkipPackages bool
	SkipDeps     bool
	SkipVerify   bool

	// PackagesDetected, when non-nil, is called once with the detected
	// package manager and the length of its package list, before any
	// package is installed.
	PackagesDetected func(manager string, total int)

	// PackageProgress, when non-nil, is called once per system package.
	PackageProgress func(pkg string)
}

// Runner sequences the setup phases: credentials, system packages, Python
// dependencies, verification. Only a dependency installation failure (or a
// broken credential payload) makes Run return an error; everything else is
// logged and tolerated.
type Runner struct {
	cfg    *config.Config
	runner CommandRunner
	out    io.Writer
}

// NewRunner creates a setup runner writing its progress to out.
func NewRunner(cfg *config.Config, runner CommandRunner, out io.Writer) *Runner {
	return &Runner{cfg: cfg, runner: runner, out: out}
}

// Run executes the setup sequence.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	path, source, err := MaterializeCredentials(&r.cfg.Firebase)
	if err != nil {
		return fmt.Errorf("credential setup failed: %w", err)
	}
	switch {
	case path != "":
		fmt.Fprintf(r.out, "Using service account credentials from %s (%s)\n", source, path)
	default:
		fmt.Fprintln(r.out, "No service account credentials configured; relying on default credentials")
	}

	if !opts.SkipPackages {
		r.installSystemPackages(ctx, opts.PackagesDetected, opts.PackageProgress)
	}

	if !opts.SkipDeps {
		fmt.Fprintln(r.out, "Installing Python dependencies for the encoder sidecar...")
		if err := InstallPythonDeps(ctx, r.runner, r.cfg.Packages.Python.Requirements); err != nil {
			return fmt.Errorf("dependency installation failed: %w", err)
		}
		fmt.Fprintln(r.out, "Python dependencies installed")
	}

	if !opts.SkipVerify {
		fmt.Fprintln(r.out, "Verifying cloud clients...")
		for _, res := range VerifyClients(ctx, r.cfg) {
			if res.OK {
				fmt.Fprintf(r.out, "  %-10s OK\n", res.Target)
			} else {
				fmt.Fprintf(r.out, "  %-10s FAILED: %s\n", res.Target, res.Detail)
			}
		}
	}

	return nil
}

// installSystemPackages performs the best-effort system package phase.
func (r *Runner) installSystemPackages(ctx context.Context, detected func(manager string, total int), progress func(pkg string)) {
	manager, pkgs := DetectManager(r.runner, r.cfg.Packages.Managers)
	if manager == "" {
		fmt.Fprintln(r.out, "No supported package manager found; skipping system packages")
		return
	}
	if detected != nil {
		detected(manager, len(pkgs))
	}

	fmt.Fprintf(r.out, "Installing %d system packages with %s...\n", len(pkgs), manager)
	failures := InstallSystemPackages(ctx, r.runner, manager, pkgs, progress)
	for _, f := range failures {
		fmt.Fprintf(r.out, "Warning: %v\n", f)
	}
	if len(failures) > 0 {
		fmt.Fprintf(r.out, "Continuing despite %d system package failures (prebuilt wheels expected)\n", len(failures))
	}
}
