//go:build mage

// macOS packaging targets: the app bundle and the DMG installer.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"lumina/internal/version"
)

var (
	bundleDir = filepath.Join(distDir, version.AppName+".app")
	dmgPath   = filepath.Join(distDir, fmt.Sprintf("%s-%s-mac.dmg", version.AppName, version.Version))
)

// infoPlist is the bundle descriptor written into Contents/Info.plist.
const infoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>%s</string>
	<key>CFBundleDisplayName</key>
	<string>%s</string>
	<key>CFBundleIdentifier</key>
	<string>app.lumina.%s</string>
	<key>CFBundleVersion</key>
	<string>%s</string>
	<key>CFBundleShortVersionString</key>
	<string>%s</string>
	<key>CFBundleExecutable</key>
	<string>%s</string>
	<key>CFBundlePackageType</key>
	<string>APPL</string>
	<key>LSMinimumSystemVersion</key>
	<string>11.0</string>
	<key>NSHighResolutionCapable</key>
	<true/>
</dict>
</plist>
`

// Package builds the macOS app bundle at dist/Lumina.app. Prior dist
// output is removed first.
func Package() error {
	if runtime.GOOS != "darwin" {
		fmt.Println("Warning: packaging a macOS bundle on", runtime.GOOS)
	}
	mg.Deps(Build)

	if err := os.RemoveAll(distDir); err != nil {
		return err
	}

	macOSDir := filepath.Join(bundleDir, "Contents", "MacOS")
	resourcesDir := filepath.Join(bundleDir, "Contents", "Resources")
	for _, dir := range []string{macOSDir, resourcesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if err := sh.Copy(filepath.Join(macOSDir, binaryName), filepath.Join(binaryDir, binaryName)); err != nil {
		return err
	}
	if err := os.Chmod(filepath.Join(macOSDir, binaryName), 0o755); err != nil {
		return err
	}

	plist := fmt.Sprintf(infoPlist,
		version.AppName, version.AppName, binaryName,
		version.Version, version.Version, binaryName)
	if err := os.WriteFile(filepath.Join(bundleDir, "Contents", "Info.plist"), []byte(plist), 0o644); err != nil {
		return err
	}

	fmt.Println("Built", bundleDir)
	fmt.Println("Note: sign the bundle with codesign before distribution.")
	return nil
}

// PackageDMG builds the app bundle and wraps it in a compressed DMG at
// dist/<AppName>-<version>-mac.dmg. create-dmg is used when installed;
// otherwise plain hdiutil.
func PackageDMG() error {
	mg.Deps(Package)

	if _, err := os.Stat(bundleDir); err != nil {
		return fmt.Errorf("bundle directory missing after build: %s", bundleDir)
	}

	if _, err := exec.LookPath("create-dmg"); err == nil {
		err := sh.RunV("create-dmg",
			"--volname", version.AppName,
			"--window-size", "500", "300",
			"--icon-size", "100",
			"--icon", version.AppName+".app", "100", "100",
			"--app-drop-link", "350", "100",
			dmgPath, bundleDir)
		if err == nil {
			return verifyDMG()
		}
		fmt.Println("create-dmg failed, falling back to hdiutil:", err)
	}

	if _, err := exec.LookPath("hdiutil"); err != nil {
		return fmt.Errorf("neither create-dmg nor hdiutil available for DMG creation")
	}
	if err := sh.RunV("hdiutil", "create",
		"-volname", version.AppName,
		"-srcfolder", bundleDir,
		"-ov",
		"-format", "UDZO",
		dmgPath); err != nil {
		return fmt.Errorf("create DMG: %w", err)
	}
	return verifyDMG()
}

func verifyDMG() error {
	if _, err := os.Stat(dmgPath); err != nil {
		return fmt.Errorf("DMG missing after creation: %s", dmgPath)
	}
	fmt.Println("Built", dmgPath)
	return nil
}
