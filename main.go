package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/docopt/docopt-go"

	"github.com/mobilekit/go-buildprep/pkg/prep"
)

const version = "1.0.0"

const usage = `go-buildprep - Mobile Build Preparation Tool

A command-line tool that injects branding, identifiers, entitlements and
icon assets into native project files (Android manifest, Gradle build files,
iOS property lists) before a release build.

Usage:
  go-buildprep prepare --project=<path> [--config=<path>]
  go-buildprep queries --manifest=<path> [--config=<path>]
  go-buildprep keychain --entitlements=<path> [--config=<path>]
  go-buildprep branding --plist=<path> [--config=<path>]
  go-buildprep gradle --build-file=<path> [--config=<path>]
  go-buildprep icons --source=<path> --out=<path> [--converter=<tool>] [--android]
  go-buildprep verify [--profile=<path>] [--p12=<path>] [--password=<password>] [--config=<path>]
  go-buildprep -h | --help
  go-buildprep --version

Commands:
  prepare   Run every preparation step against a project tree
  queries   Reconcile the <queries> section of an AndroidManifest.xml
  keychain  Reconcile keychain-access-groups in an entitlements file
  branding  Apply display name, bundle id and versions to an Info.plist
  gradle    Apply applicationId and versions to a build.gradle
  icons     Generate resized icon assets from a source image
  verify    Check the signing certificate against the provisioning profile

Options:
  --project=<path>       Root of the cross-platform project tree
  --config=<path>        Build configuration file (or BUILDPREP_CONFIG env var) [default: buildprep.json]
  --manifest=<path>      Path to AndroidManifest.xml
  --entitlements=<path>  Path to the .entitlements file
  --plist=<path>         Path to Info.plist
  --build-file=<path>    Path to build.gradle
  --source=<path>        Source icon image (1024x1024 recommended)
  --out=<path>           Output directory for generated icons
  --converter=<tool>     Icon converter: sips, convert or magick
  --android              Generate the Android mipmap set instead of the iOS set
  --profile=<path>       Provisioning profile (or BUILDPREP_PROFILE env var)
  --p12=<path>           P12 certificate file (or BUILDPREP_P12 env var)
  --password=<password>  P12 password (or BUILDPREP_P12_PASSWORD env var)
  -h --help              Show this help message
  --version              Show version

Environment Variables:
  BUILDPREP_CONFIG        Build configuration file (overridden by --config)
  BUILDPREP_PROFILE       Provisioning profile path (overridden by --profile)
  BUILDPREP_P12           P12 certificate path (overridden by --p12)
  BUILDPREP_P12_PASSWORD  P12 password (overridden by --password)
  BUILDPREP_DEBUG         Enable debug logging when set

Examples:
  # Run the full preparation pipeline
  go-buildprep prepare --project=. --config=buildprep.json

  # Inject package-visibility queries into a manifest
  go-buildprep queries --manifest=android/app/src/main/AndroidManifest.xml

  # Reconcile keychain access groups
  go-buildprep keychain --entitlements=ios/App/App.entitlements

  # Generate the iOS AppIcon set from a master image
  go-buildprep icons --source=icon.png --out=ios/App/Assets.xcassets/AppIcon.appiconset

  # Preflight the signing assets before kicking off the build
  go-buildprep verify --profile=dist.mobileprovision --p12=cert.p12 --password=secret
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "buildprep",
	})
	if os.Getenv("BUILDPREP_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	run := func(name string, fn func(docopt.Opts, *log.Logger) error) {
		if selected, _ := opts.Bool(name); selected {
			if err := fn(opts, logger); err != nil {
				logger.Error(err.Error())
				os.Exit(1)
			}
			os.Exit(0)
		}
	}

	run("prepare", runPrepare)
	run("queries", runQueries)
	run("keychain", runKeychain)
	run("branding", runBranding)
	run("gradle", runGradle)
	run("icons", runIcons)
	run("verify", runVerify)
}

func loadConfig(opts docopt.Opts) (*prep.BuildConfig, error) {
	configPath, _ := opts.String("--config")
	if env := os.Getenv("BUILDPREP_CONFIG"); configPath == "buildprep.json" && env != "" {
		configPath = env
	}
	return prep.LoadConfig(configPath)
}

func runPrepare(opts docopt.Opts, logger *log.Logger) error {
	projectDir, _ := opts.String("--project")

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger.Info("preparing project", "dir", projectDir, "app", cfg.AppName)
	if err := prep.Prepare(cfg, prep.PrepareOptions{ProjectDir: projectDir, Log: logger}); err != nil {
		return err
	}
	logger.Info("project prepared")
	return nil
}

func runQueries(opts docopt.Opts, logger *log.Logger) error {
	manifestPath, _ := opts.String("--manifest")

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if len(cfg.Queries) == 0 {
		logger.Info("no queries configured, manifest left unchanged")
		return nil
	}

	if err := prep.AddPackageQueries(manifestPath, cfg.Queries); err != nil {
		return err
	}
	logger.Info("package queries reconciled", "manifest", manifestPath, "count", len(cfg.Queries))
	return nil
}

func runKeychain(opts docopt.Opts, logger *log.Logger) error {
	entitlementsPath, _ := opts.String("--entitlements")

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if len(cfg.Keychains) == 0 {
		logger.Info("no keychains configured, entitlements left unchanged")
		return nil
	}

	groups := prep.KeychainGroupEntries(cfg.TeamID, cfg.Keychains)
	if err := prep.ReconcileKeychainGroups(entitlementsPath, groups); err != nil {
		return err
	}
	logger.Info("keychain access groups reconciled", "file", entitlementsPath, "count", len(groups))
	return nil
}

func runBranding(opts docopt.Opts, logger *log.Logger) error {
	plistPath, _ := opts.String("--plist")

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if cfg.AppName != "" {
		if err := prep.SetDisplayName(plistPath, cfg.AppName); err != nil {
			return err
		}
	}
	if err := prep.SetBundleIdentifier(plistPath, cfg.EffectiveBundleID()); err != nil {
		return err
	}
	if err := prep.SetBundleVersion(plistPath, cfg.VersionName, cfg.VersionCode); err != nil {
		return err
	}
	if cfg.URLScheme != "" {
		if err := prep.SetURLScheme(plistPath, cfg.URLScheme); err != nil {
			return err
		}
	}

	logger.Info("branding applied", "plist", plistPath, "name", cfg.AppName, "bundleId", cfg.EffectiveBundleID())
	return nil
}

func runGradle(opts docopt.Opts, logger *log.Logger) error {
	buildFile, _ := opts.String("--build-file")

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err := prep.SetGradleApplicationID(buildFile, cfg.EffectiveApplicationID()); err != nil {
		return err
	}
	if err := prep.SetGradleVersionName(buildFile, cfg.VersionName); err != nil {
		return err
	}
	if err := prep.SetGradleVersionCode(buildFile, cfg.VersionCode); err != nil {
		return err
	}

	logger.Info("gradle build file updated", "file", buildFile,
		"applicationId", cfg.EffectiveApplicationID(),
		"versionName", cfg.VersionName, "versionCode", cfg.VersionCode)
	return nil
}

func runIcons(opts docopt.Opts, logger *log.Logger) error {
	source, _ := opts.String("--source")
	outDir, _ := opts.String("--out")
	converter, _ := opts.String("--converter")
	android, _ := opts.Bool("--android")

	if converter == "" {
		converter = "sips"
	}

	specs := prep.IOSAppIconSpecs
	if android {
		specs = prep.AndroidIconSpecs
	}

	runner := prep.ExecRunner{Log: logger}
	if err := prep.GenerateIcons(runner, converter, source, outDir, specs); err != nil {
		return err
	}
	logger.Info("icons generated", "out", outDir, "count", len(specs))
	return nil
}

func runVerify(opts docopt.Opts, logger *log.Logger) error {
	profilePath, _ := opts.String("--profile")
	p12Path, _ := opts.String("--p12")
	password, _ := opts.String("--password")

	if profilePath == "" {
		profilePath = os.Getenv("BUILDPREP_PROFILE")
	}
	if p12Path == "" {
		p12Path = os.Getenv("BUILDPREP_P12")
	}
	if password == "" {
		password = os.Getenv("BUILDPREP_P12_PASSWORD")
	}

	// Fall back to the config file for anything still missing.
	if profilePath == "" || p12Path == "" || password == "" {
		if cfg, err := loadConfig(opts); err == nil {
			if profilePath == "" {
				profilePath = cfg.Profile
			}
			if p12Path == "" {
				p12Path = cfg.P12
			}
			if password == "" {
				password = cfg.P12Password
			}
		}
	}

	if profilePath == "" {
		return fmt.Errorf("--profile is required (or set BUILDPREP_PROFILE)")
	}
	if p12Path == "" {
		return fmt.Errorf("--p12 is required (or set BUILDPREP_P12)")
	}

	profileData, err := os.ReadFile(profilePath)
	if err != nil {
		return fmt.Errorf("failed to read provisioning profile: %w", err)
	}
	p12Data, err := os.ReadFile(p12Path)
	if err != nil {
		return fmt.Errorf("failed to read P12 file: %w", err)
	}

	profile, cert, err := prep.VerifySigningAssets(profileData, p12Data, password)
	if err != nil {
		return err
	}

	logger.Info("signing assets verified",
		"profile", profile.Name,
		"team", profile.TeamID(),
		"certificate", cert.Subject.CommonName,
		"expires", profile.ExpirationDate.Format("2006-01-02"))
	return nil
}
