package prep

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PrepareOptions locates the native project files inside a project tree and
// supplies the collaborators the pipeline needs. Relative paths are resolved
// against ProjectDir; empty fields fall back to the usual layout of a
// cross-platform app.
type PrepareOptions struct {
	ProjectDir   string
	Manifest     string
	GradleFile   string
	InfoPlist    string
	Entitlements string
	IconSet      string
	AndroidRes   string
	Converter    string
	Runner       Runner
	Log          *log.Logger
}

func (o *PrepareOptions) applyDefaults() {
	if o.Manifest == "" {
		o.Manifest = "android/app/src/main/AndroidManifest.xml"
	}
	if o.GradleFile == "" {
		o.GradleFile = "android/app/build.gradle"
	}
	if o.InfoPlist == "" {
		o.InfoPlist = "ios/App/Info.plist"
	}
	if o.Entitlements == "" {
		o.Entitlements = "ios/App/App.entitlements"
	}
	if o.IconSet == "" {
		o.IconSet = "ios/App/Assets.xcassets/AppIcon.appiconset"
	}
	if o.AndroidRes == "" {
		o.AndroidRes = "android/app/src/main/res"
	}
	if o.Converter == "" {
		if runtime.GOOS == "darwin" {
			o.Converter = "sips"
		} else {
			o.Converter = "convert"
		}
	}
	if o.Log == nil {
		o.Log = log.New(os.Stderr)
	}
	if o.Runner == nil {
		o.Runner = ExecRunner{Log: o.Log}
	}
}

func (o *PrepareOptions) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(o.ProjectDir, path)
}

// Prepare runs every preparation step against the project tree, in a fixed
// order, stopping at the first failure. Steps whose target file is absent or
// whose configuration input is empty are skipped with a log line, so a
// single-platform project works with the same config.
func Prepare(cfg *BuildConfig, opts PrepareOptions) error {
	opts.applyDefaults()
	logger := opts.Log

	manifest := opts.resolve(opts.Manifest)
	if fileExists(manifest) {
		if id := cfg.EffectiveApplicationID(); id != "" {
			logger.Info("setting manifest package", "id", id)
			if err := SetManifestPackage(manifest, id); err != nil {
				return err
			}
		}
		if len(cfg.Queries) > 0 {
			logger.Info("reconciling package queries", "count", len(cfg.Queries))
			if err := AddPackageQueries(manifest, cfg.Queries); err != nil {
				return err
			}
		}
	} else {
		logger.Info("skipping Android manifest, file not found", "path", manifest)
	}

	gradle := opts.resolve(opts.GradleFile)
	if fileExists(gradle) {
		logger.Info("updating gradle build file",
			"applicationId", cfg.EffectiveApplicationID(),
			"versionName", cfg.VersionName,
			"versionCode", cfg.VersionCode)
		if err := SetGradleApplicationID(gradle, cfg.EffectiveApplicationID()); err != nil {
			return err
		}
		if err := SetGradleVersionName(gradle, cfg.VersionName); err != nil {
			return err
		}
		if err := SetGradleVersionCode(gradle, cfg.VersionCode); err != nil {
			return err
		}
	} else {
		logger.Info("skipping gradle build file, not found", "path", gradle)
	}

	infoPlist := opts.resolve(opts.InfoPlist)
	if fileExists(infoPlist) {
		logger.Info("branding Info.plist", "name", cfg.AppName, "bundleId", cfg.EffectiveBundleID())
		if cfg.AppName != "" {
			if err := SetDisplayName(infoPlist, cfg.AppName); err != nil {
				return err
			}
		}
		if err := SetBundleIdentifier(infoPlist, cfg.EffectiveBundleID()); err != nil {
			return err
		}
		if err := SetBundleVersion(infoPlist, cfg.VersionName, cfg.VersionCode); err != nil {
			return err
		}
		if cfg.URLScheme != "" {
			if err := SetURLScheme(infoPlist, cfg.URLScheme); err != nil {
				return err
			}
		}
	} else {
		logger.Info("skipping Info.plist, file not found", "path", infoPlist)
	}

	entitlements := opts.resolve(opts.Entitlements)
	if len(cfg.Keychains) > 0 {
		if fileExists(entitlements) {
			teamID, err := resolveTeamID(cfg, opts)
			if err != nil {
				return err
			}
			logger.Info("reconciling keychain access groups", "count", len(cfg.Keychains), "team", teamID)
			groups := KeychainGroupEntries(teamID, cfg.Keychains)
			if err := ReconcileKeychainGroups(entitlements, groups); err != nil {
				return err
			}
		} else {
			logger.Info("skipping entitlements, file not found", "path", entitlements)
		}
	}

	if cfg.IconSource != "" {
		iconSource := opts.resolve(cfg.IconSource)
		if isDir(iconSource) {
			dst := opts.resolve(opts.IconSet)
			logger.Info("replacing iconset", "src", iconSource, "dst", dst)
			if err := ReplaceIconSet(iconSource, dst); err != nil {
				return err
			}
		} else {
			iosOut := opts.resolve(opts.IconSet)
			logger.Info("generating iOS icons", "source", iconSource, "out", iosOut)
			if err := GenerateIcons(opts.Runner, opts.Converter, iconSource, iosOut, IOSAppIconSpecs); err != nil {
				return err
			}

			resOut := opts.resolve(opts.AndroidRes)
			logger.Info("generating Android icons", "source", iconSource, "out", resOut)
			if err := GenerateIcons(opts.Runner, opts.Converter, iconSource, resOut, AndroidIconSpecs); err != nil {
				return err
			}
		}
	}

	return nil
}

// resolveTeamID prefers the configured team id and falls back to the
// provisioning profile when one is configured.
func resolveTeamID(cfg *BuildConfig, opts PrepareOptions) (string, error) {
	if cfg.TeamID != "" {
		return cfg.TeamID, nil
	}
	if cfg.Profile == "" {
		return "", nil
	}

	data, err := os.ReadFile(opts.resolve(cfg.Profile))
	if err != nil {
		return "", fmt.Errorf("failed to read provisioning profile: %w", err)
	}
	profile, err := ParseProvisioningProfile(data)
	if err != nil {
		return "", err
	}
	return profile.TeamID(), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
