// Package container reads and writes the .gcode.3mf archives produced by
// Bambu Studio. A 3mf file is a plain zip; each plate's command stream lives
// in Metadata/plate_<n>.gcode with its metadata in a json sidecar and an MD5
// checksum next to it.
package container

import (
	"archive/zip"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var platePattern = regexp.MustCompile(`^Metadata/plate_(\d+)\.gcode$`)

// Plate is one plate's command stream and filament metadata.
type Plate struct {
	// Number is the 1-based plate number inside the archive.
	Number int
	// Lines is the command stream split into lines.
	Lines []string
	// Separator is the line-ending flavor of the original stream; the
	// rewritten stream is re-joined with it.
	Separator string
	// Colors maps filament ids to their display color.
	Colors map[int]string
}

type plateMetadata struct {
	FilamentIDs    []int    `json:"filament_ids"`
	FilamentColors []string `json:"filament_colors"`
}

// Open reads plate number from the archive at path. number 0 picks the first
// plate found in the archive.
func Open(path string, number int) (*Plate, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open 3mf file: %w", err)
	}
	defer zr.Close()

	if number == 0 {
		for _, f := range zr.File {
			if m := platePattern.FindStringSubmatch(f.Name); m != nil {
				number, _ = strconv.Atoi(m[1])
				break
			}
		}
		if number == 0 {
			return nil, fmt.Errorf("no plate gcode found in %s", path)
		}
	}

	raw, err := readMember(&zr.Reader, gcodeMember(number))
	if err != nil {
		return nil, err
	}
	data := string(raw)
	separator := "\n"
	if strings.Contains(data, "\r\n") {
		separator = "\r\n"
	}

	metaRaw, err := readMember(&zr.Reader, metadataMember(number))
	if err != nil {
		return nil, err
	}
	var meta plateMetadata
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, fmt.Errorf("parse plate %d metadata: %w", number, err)
	}
	if len(meta.FilamentIDs) != len(meta.FilamentColors) {
		return nil, fmt.Errorf("plate %d metadata lists %d filament ids but %d colors",
			number, len(meta.FilamentIDs), len(meta.FilamentColors))
	}
	colors := make(map[int]string, len(meta.FilamentIDs))
	for i, id := range meta.FilamentIDs {
		colors[id] = meta.FilamentColors[i]
	}

	normalized := strings.ReplaceAll(data, "\r\n", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")

	return &Plate{
		Number:    number,
		Lines:     strings.Split(normalized, "\n"),
		Separator: separator,
		Colors:    colors,
	}, nil
}

// WriteModified copies the archive at src to dst, replacing the plate's
// command stream with lines and updating its MD5 sidecar. All other archive
// members are carried over untouched.
func WriteModified(src, dst string, plate *Plate, lines []string) error {
	payload := []byte(strings.Join(lines, plate.Separator))
	sum := fmt.Sprintf("%X", md5.Sum(payload))

	replaced := map[string][]byte{
		gcodeMember(plate.Number):          payload,
		gcodeMember(plate.Number) + ".md5": []byte(sum),
	}

	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open 3mf file: %w", err)
	}
	defer zr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, f := range zr.File {
		if data, ok := replaced[f.Name]; ok {
			w, err := zw.Create(f.Name)
			if err != nil {
				return fmt.Errorf("write %s: %w", f.Name, err)
			}
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("write %s: %w", f.Name, err)
			}
			delete(replaced, f.Name)
			continue
		}
		if err := zw.Copy(f); err != nil {
			return fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	// The md5 sidecar (or even the gcode member) may be missing from the
	// source archive; append whatever was not replaced in place.
	for _, name := range []string{gcodeMember(plate.Number), gcodeMember(plate.Number) + ".md5"} {
		data, ok := replaced[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize output file: %w", err)
	}
	return out.Close()
}

// DerivedPath returns the output path for a rewritten archive: the input
// name with "_with_pauses" spliced in before the first extension,
// e.g. cube.gcode.3mf -> cube_with_pauses.gcode.3mf.
func DerivedPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	i := strings.Index(base, ".")
	if i < 0 {
		return filepath.Join(dir, base+"_with_pauses")
	}
	return filepath.Join(dir, base[:i]+"_with_pauses"+base[i:])
}

func gcodeMember(number int) string {
	return fmt.Sprintf("Metadata/plate_%d.gcode", number)
}

func metadataMember(number int) string {
	return fmt.Sprintf("Metadata/plate_%d.json", number)
}

func readMember(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
