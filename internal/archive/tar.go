// Package archive serializes spectra into the tar bundles exchanged with
// PeakInvestigator.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/celestiaorg/peakinvestigator/internal/experiment"
)

// Codec stores an experiment's spectra in a single file and reads them back
type Codec interface {
	Store(path string, exp *experiment.Experiment) error
	Load(path string) ([]experiment.Spectrum, error)
}

const scanPrefix = "scan_"

// TarCodec writes one scan_<index>.txt entry per spectrum, each line holding
// m/z and intensity separated by a tab. Load also accepts gzip'd tars.
type TarCodec struct{}

// NewTarCodec returns the default codec
func NewTarCodec() *TarCodec {
	return &TarCodec{}
}

// Store writes every spectrum of exp to a tar file at p
func (c *TarCodec) Store(p string, exp *experiment.Experiment) (err error) {
	f, err := os.Create(p) // #nosec G304 -- path is built by the session from the job id
	if err != nil {
		return fmt.Errorf("error creating archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing archive: %w", cerr)
		}
	}()

	tw := tar.NewWriter(f)
	now := time.Now()
	for i, s := range exp.Spectra {
		var buf bytes.Buffer
		for _, pk := range s.Peaks {
			buf.WriteString(strconv.FormatFloat(pk.MZ, 'g', -1, 64))
			buf.WriteByte('\t')
			buf.WriteString(strconv.FormatFloat(pk.Intensity, 'g', -1, 64))
			buf.WriteByte('\n')
		}
		hdr := &tar.Header{
			Name:    fmt.Sprintf("%s%06d.txt", scanPrefix, i),
			Mode:    0o644,
			Size:    int64(buf.Len()),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("error writing header for scan %d: %w", i, err)
		}
		if _, err := tw.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("error writing scan %d: %w", i, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("error finishing archive: %w", err)
	}
	return nil
}

// Load reads spectra back from a tar file, ordered by scan index
func (c *TarCodec) Load(p string) ([]experiment.Spectrum, error) {
	f, err := os.Open(p) // #nosec G304 -- path is built by the session from the results file name
	if err != nil {
		return nil, fmt.Errorf("error opening archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, err := maybeGunzip(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}

	var spectra []experiment.Spectrum
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		index, ok := scanIndex(hdr.Name)
		if !ok {
			continue
		}
		peaks, err := readPeaks(tr)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", hdr.Name, err)
		}
		spectra = append(spectra, experiment.Spectrum{Index: index, Peaks: peaks})
	}

	sort.SliceStable(spectra, func(i, j int) bool { return spectra[i].Index < spectra[j].Index })
	return spectra, nil
}

func maybeGunzip(br *bufio.Reader) (io.Reader, error) {
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading archive: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("error opening gzip stream: %w", err)
		}
		return zr, nil
	}
	return br, nil
}

func scanIndex(name string) (int, bool) {
	base := path.Base(name)
	if !strings.HasPrefix(base, scanPrefix) {
		return 0, false
	}
	base = strings.TrimSuffix(strings.TrimPrefix(base, scanPrefix), path.Ext(base))
	n, err := strconv.Atoi(base)
	if err != nil {
		return 0, false
	}
	return n, true
}

func readPeaks(r io.Reader) ([]experiment.Peak, error) {
	var peaks []experiment.Peak
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected m/z and intensity", line)
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid m/z: %w", line, err)
		}
		intensity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid intensity: %w", line, err)
		}
		peaks = append(peaks, experiment.Peak{MZ: mz, Intensity: intensity})
	}
	return peaks, sc.Err()
}
