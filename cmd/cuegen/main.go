// Cuegen writes the placeholder binaural cue clips for every table entry
// and prints the position-to-cue table.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/teslashibe/go-eyehelper/internal/config"
	"github.com/teslashibe/go-eyehelper/internal/log"
	"github.com/teslashibe/go-eyehelper/pkg/cue"
)

func main() {
	synth := cue.DefaultSynthConfig()

	out := flag.String("out", config.String(config.EnvCueDir, "cues"), "Output directory for <cue>.wav files")
	listOnly := flag.Bool("list", false, "Print the table without writing clips")
	overwrite := flag.Bool("overwrite", false, "Replace clips that already exist")
	flag.IntVar(&synth.SampleRate, "sample-rate", synth.SampleRate, "Sample rate in Hz")
	flag.DurationVar(&synth.Duration, "duration", synth.Duration, "Clip length")
	flag.Float64Var(&synth.BaseFrequency, "base-freq", synth.BaseFrequency, "Tone frequency at height band 0")
	flag.Float64Var(&synth.SemitonesPerBand, "semitones", synth.SemitonesPerBand, "Pitch step between height bands")
	flag.Parse()

	log.Init("info")
	if err := synth.Validate(); err != nil {
		log.Error("invalid synth settings", "error", err)
		os.Exit(1)
	}

	table := cue.NewTable()
	printTable(table)
	if *listOnly {
		return
	}

	written, skipped, err := writeClips(table, *out, synth, *overwrite)
	if err != nil {
		log.Error("writing cues failed", "error", err, "written", written)
		os.Exit(1)
	}
	log.Info("cue clips written", "dir", *out, "written", written, "skipped", skipped)
}

func printTable(t *cue.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "band\tangle\tcues (height 0..7)")
	for band := 0; band < cue.AngleBands; band++ {
		fmt.Fprintf(w, "%d\t%s\t", band, angleRange(band))
		for h := 0; h < cue.HeightBands; h++ {
			fmt.Fprintf(w, "%s ", t[h][band])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// angleRange describes the angles that select a band.
func angleRange(band int) string {
	switch {
	case band == 0:
		return fmt.Sprintf("a <= %g", cue.AngleThresholds[0])
	case band == cue.AngleBands-1:
		return fmt.Sprintf("a > %g", cue.AngleThresholds[band-1])
	default:
		return fmt.Sprintf("%g < a <= %g", cue.AngleThresholds[band-1], cue.AngleThresholds[band])
	}
}

func writeClips(t *cue.Table, dir string, synth cue.SynthConfig, overwrite bool) (written, skipped int, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, err
	}
	for _, id := range t.All() {
		path := filepath.Join(dir, string(id)+".wav")
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				skipped++
				continue
			}
		}

		clip, err := cue.Synthesize(id, synth)
		if err != nil {
			return written, skipped, err
		}
		if err := writeClip(path, clip); err != nil {
			return written, skipped, err
		}
		written++
	}
	return written, skipped, nil
}

func writeClip(path string, clip *cue.Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := cue.WriteWAV(f, clip); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
