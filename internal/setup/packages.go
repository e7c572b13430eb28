package setup

import (
	"context"
	"fmt"
	"strings"
)

// managerPriority is the detection order for supported package managers.
var managerPriority = []string{"apt-get", "apk", "dnf", "yum", "brew"}

// installArgs returns the per-package install invocation for a manager.
func installArgs(manager, pkg string) []string {
	switch manager {
	case "apt-get":
		return []string{"install", "-y", "--no-install-recommends", pkg}
	case "apk":
		return []string{"add", "--no-cache", pkg}
	case "dnf", "yum":
		return []string{"install", "-y", pkg}
	case "brew":
		return []string{"install", pkg}
	default:
		return []string{"install", pkg}
	}
}

// DetectManager finds the first supported package manager present on PATH that
// has a package list in the manifest. Returns empty values when none is found.
func DetectManager(runner CommandRunner, manifest map[string][]string) (string, []string) {
	for _, name := range managerPriority {
		pkgs, ok := manifest[name]
		if !ok || len(pkgs) == 0 {
			continue
		}
		if _, err := runner.LookPath(name); err != nil {
			continue
		}
		return name, pkgs
	}
	return "", nil
}

// refreshIndex updates the package index for managers that need it. Failures
// are tolerated like every other system package step.
func refreshIndex(ctx context.Context, runner CommandRunner, manager string) *RunResult {
	switch manager {
	case "apt-get":
		return runner.Run(ctx, "apt-get", "update")
	case "apk":
		return runner.Run(ctx, "apk", "update")
	default:
		return nil
	}
}

// InstallSystemPackages installs packages one at a time so a single broken
// package does not sink the rest. Every failure is collected and reported;
// none is fatal — prebuilt wheels usually cover missing system libraries.
// The progress callback, when non-nil, is invoked after each package.
func InstallSystemPackages(ctx context.Context, runner CommandRunner, manager string, pkgs []string, progress func(pkg string)) []error {
	var failures []error

	if res := refreshIndex(ctx, runner, manager); res != nil && !res.Success() {
		failures = append(failures, fmt.Errorf("%s index refresh failed: %s", manager, firstLine(res.Stderr)))
	}

	for _, pkg := range pkgs {
		res := runner.Run(ctx, manager, installArgs(manager, pkg)...)
		if !res.Success() {
			detail := firstLine(res.Stderr)
			if detail == "" && res.Err != nil {
				detail = res.Err.Error()
			}
			failures = append(failures, fmt.Errorf("%s install %s failed: %s", manager, pkg, detail))
		}
		if progress != nil {
			progress(pkg)
		}
	}
	return failures
}

// InstallPythonDeps installs the encoder sidecar requirements with pip.
// Unlike system packages this is fatal: without the cloud SDK clients the
// application cannot run, so the caller must exit non-zero on error.
func InstallPythonDeps(ctx context.Context, runner CommandRunner, requirements []string) error {
	if len(requirements) == 0 {
		return nil
	}

	pip := ""
	for _, candidate := range []string{"pip3", "pip"} {
		if _, err := runner.LookPath(candidate); err == nil {
			pip = candidate
			break
		}
	}
	if pip == "" {
		return fmt.Errorf("neither pip3 nor pip found on PATH")
	}

	args := append([]string{"install", "--upgrade"}, requirements...)
	res := runner.Run(ctx, pip, args...)
	if !res.Success() {
		detail := firstLine(res.Stderr)
		if detail == "" && res.Err != nil {
			detail = res.Err.Error()
		}
		return fmt.Errorf("%s install failed (exit %d): %s", pip, res.ExitCode, detail)
	}
	return nil
}

// firstLine trims output to its first non-empty line for compact diagnostics.
func firstLine(s string) string {
	for line := range strings.SplitSeq(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
