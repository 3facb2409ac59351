// Package media discovers, probes and renders project media with ffmpeg.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reelsmith/config"
	"reelsmith/types"

	"github.com/maruel/natural"
)

var (
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".m4v": true, ".mkv": true, ".webm": true, ".avi": true}
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".bmp": true}
	audioExts = map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".aac": true, ".ogg": true, ".flac": true}
)

// KindOf classifies a file by extension
func KindOf(path string) (types.AssetKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExts[ext]:
		return types.KindVideo, true
	case imageExts[ext]:
		return types.KindImage, true
	}
	return "", false
}

// RoleOf derives the role from the file stem: start.* and closing.* are
// the designated intro and outro.
func RoleOf(path string) types.AssetRole {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	switch stem {
	case "start":
		return types.RoleStart
	case "closing":
		return types.RoleClosing
	}
	return types.RoleNormal
}

// Scan lists candidate assets under <projectDir>/media. Unknown file types
// and hidden files are ignored; a missing folder yields no candidates.
func Scan(projectDir string) ([]types.Asset, error) {
	dir := filepath.Join(projectDir, config.MediaDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan media: %w", err)
	}

	var assets []types.Asset
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		kind, ok := KindOf(path)
		if !ok {
			continue
		}
		assets = append(assets, types.Asset{Path: path, Kind: kind, Role: RoleOf(path)})
	}
	sort.SliceStable(assets, func(i, j int) bool {
		return natural.Less(filepath.Base(assets[i].Path), filepath.Base(assets[j].Path))
	})
	return assets, nil
}

// FindBgm returns the first audio file under <projectDir>/bgm in natural order
func FindBgm(projectDir string) (string, bool) {
	entries, err := os.ReadDir(filepath.Join(projectDir, config.BgmDir))
	if err != nil {
		return "", false
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Sort(natural.StringSlice(names))
	return filepath.Join(projectDir, config.BgmDir, names[0]), true
}
