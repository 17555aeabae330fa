package prep

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IconSpec names one icon file and its square pixel size.
type IconSpec struct {
	Name string
	Size int
}

// IOSAppIconSpecs is the standard AppIcon.appiconset contents for iPhone and
// iPad targets plus the App Store icon.
var IOSAppIconSpecs = []IconSpec{
	{"Icon-20@2x.png", 40},
	{"Icon-20@3x.png", 60},
	{"Icon-29@2x.png", 58},
	{"Icon-29@3x.png", 87},
	{"Icon-40@2x.png", 80},
	{"Icon-40@3x.png", 120},
	{"Icon-60@2x.png", 120},
	{"Icon-60@3x.png", 180},
	{"Icon-76.png", 76},
	{"Icon-76@2x.png", 152},
	{"Icon-83.5@2x.png", 167},
	{"Icon-1024.png", 1024},
}

// AndroidIconSpecs covers the launcher icon for each mipmap density bucket.
var AndroidIconSpecs = []IconSpec{
	{"mipmap-mdpi/ic_launcher.png", 48},
	{"mipmap-hdpi/ic_launcher.png", 72},
	{"mipmap-xhdpi/ic_launcher.png", 96},
	{"mipmap-xxhdpi/ic_launcher.png", 144},
	{"mipmap-xxxhdpi/ic_launcher.png", 192},
}

// GenerateIcons resizes the source image into every icon named by specs,
// invoking the given converter tool ("sips" or ImageMagick's "convert" /
// "magick") through the runner. Output subdirectories are created as needed.
func GenerateIcons(r Runner, converter, source, outDir string, specs []IconSpec) error {
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("icon source not readable: %w", err)
	}

	for _, spec := range specs {
		dest := filepath.Join(outDir, spec.Name)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("failed to create icon directory: %w", err)
		}

		args, err := converterArgs(converter, source, dest, spec.Size)
		if err != nil {
			return err
		}
		if err := r.Run(converter, args...); err != nil {
			return fmt.Errorf("failed to generate %s: %w", spec.Name, err)
		}
	}
	return nil
}

func converterArgs(converter, source, dest string, size int) ([]string, error) {
	px := fmt.Sprintf("%d", size)
	switch filepath.Base(converter) {
	case "sips":
		return []string{"-z", px, px, source, "--out", dest}, nil
	case "convert", "magick":
		return []string{source, "-resize", px + "x" + px, dest}, nil
	default:
		return nil, fmt.Errorf("unsupported icon converter %q", converter)
	}
}

// ReplaceIconSet replaces the destination iconset directory with a copy of
// the source directory, including Contents.json and all image files.
func ReplaceIconSet(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("iconset source %s is not a directory", src)
	}

	if err := os.RemoveAll(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing iconset: %w", err)
	}
	return copyDir(src, dst)
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		if err := copyFile(srcPath, dstPath, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies a single file from src to dst with the given mode using
// streaming I/O.
func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
