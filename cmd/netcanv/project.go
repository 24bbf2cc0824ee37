package main

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"regexp"

	"github.com/quantarax/netcanv/internal/canvas"
	"github.com/quantarax/netcanv/internal/config"
	"github.com/quantarax/netcanv/internal/imagecodec"
	"github.com/quantarax/netcanv/internal/session"
	"github.com/quantarax/netcanv/internal/wire"
)

// chunkFileNamePattern matches the {x},{y}.png files a project directory
// holds, same shape as config.ChunkFileName produces.
var chunkFileNamePattern = regexp.MustCompile(`^(-?\d+),(-?\d+)\.png$`)

// loadProject reads an existing (or freshly created) .netcanv project
// directory and installs every chunk it contains into sess's canvas,
// as already-authoritative data rather than a local edit.
func loadProject(sess *session.Session, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "canvas.toml")); os.IsNotExist(err) {
		if _, err := config.CreateProject(dir); err != nil {
			return err
		}
		return nil
	}
	if _, err := config.OpenProject(dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("netcanv: read project dir: %w", err)
	}
	for _, entry := range entries {
		m := chunkFileNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		var coord wire.Coord
		if _, err := fmt.Sscanf(m[1]+","+m[2], "%d,%d", &coord.X, &coord.Y); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("netcanv: read %s: %w", entry.Name(), err)
		}
		img, err := imagecodec.DecodeNetworkChunk(data, canvas.ChunkSize)
		if err != nil {
			return fmt.Errorf("netcanv: decode %s: %w", entry.Name(), err)
		}
		sess.Canvas.InstallDecodedChunk(coord, img)
	}
	return nil
}

// saveProject writes sess's canvas back out to dir as a canvas.toml
// manifest plus one {x},{y}.png per chunk, per spec.md §6's
// directory-of-chunks project layout.
func saveProject(sess *session.Session, dir string) error {
	if _, err := config.CreateProject(dir); err != nil {
		return err
	}
	for _, coord := range sess.Canvas.ChunkPositions() {
		img, ok := sess.Canvas.ImageForEncode(coord)
		if !ok {
			continue
		}
		data, err := imagecodec.EncodePNG(img)
		if err != nil {
			return fmt.Errorf("netcanv: encode chunk %v: %w", coord, err)
		}
		if err := os.WriteFile(config.ChunkPath(dir, coord), data, 0o644); err != nil {
			return fmt.Errorf("netcanv: write chunk %v: %w", coord, err)
		}
	}
	return nil
}

// exportFlatPNG flattens every chunk of a project directory into a
// single PNG and writes it next to path, with the canvas-space origin
// of the flattened image's top-left corner recorded in the filename
// as an "!org{x},{y}" marker (spec.md §6's alternate export format).
func exportFlatPNG(dir, path string) error {
	if _, err := config.OpenProject(dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("netcanv: read project dir: %w", err)
	}

	type chunkFile struct {
		coord wire.Coord
		path  string
	}
	var chunks []chunkFile
	for _, entry := range entries {
		m := chunkFileNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		var coord wire.Coord
		if _, err := fmt.Sscanf(m[1]+","+m[2], "%d,%d", &coord.X, &coord.Y); err != nil {
			continue
		}
		chunks = append(chunks, chunkFile{coord: coord, path: filepath.Join(dir, entry.Name())})
	}
	if len(chunks) == 0 {
		return fmt.Errorf("netcanv: project %s has no chunks to export", dir)
	}

	minX, minY := chunks[0].coord.X, chunks[0].coord.Y
	maxX, maxY := minX, minY
	for _, c := range chunks {
		if c.coord.X < minX {
			minX = c.coord.X
		}
		if c.coord.Y < minY {
			minY = c.coord.Y
		}
		if c.coord.X > maxX {
			maxX = c.coord.X
		}
		if c.coord.Y > maxY {
			maxY = c.coord.Y
		}
	}

	width := (maxX - minX + 1) * canvas.ChunkSize
	height := (maxY - minY + 1) * canvas.ChunkSize
	flat := image.NewRGBA(image.Rect(0, 0, width, height))

	for _, c := range chunks {
		data, err := os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("netcanv: read %s: %w", c.path, err)
		}
		img, err := imagecodec.DecodeNetworkChunk(data, canvas.ChunkSize)
		if err != nil {
			return fmt.Errorf("netcanv: decode %s: %w", c.path, err)
		}
		ox := (c.coord.X - minX) * canvas.ChunkSize
		oy := (c.coord.Y - minY) * canvas.ChunkSize
		dstRect := image.Rect(ox, oy, ox+canvas.ChunkSize, oy+canvas.ChunkSize)
		draw.Draw(flat, dstRect, img, image.Point{}, draw.Src)
	}

	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	if ext == "" {
		ext = ".png"
	}
	markedPath := fmt.Sprintf("%s!org%d,%d%s", base, minX, minY, ext)

	data, err := imagecodec.EncodePNG(flat)
	if err != nil {
		return fmt.Errorf("netcanv: encode flat export: %w", err)
	}
	if err := os.WriteFile(markedPath, data, 0o644); err != nil {
		return fmt.Errorf("netcanv: write %s: %w", markedPath, err)
	}
	return nil
}
