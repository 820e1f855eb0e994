package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mrsinham/dicompack/internal/archive"
	"github.com/mrsinham/dicompack/internal/dataset"
	"github.com/mrsinham/dicompack/internal/manifest"
	"github.com/mrsinham/dicompack/internal/volume"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Define command-line flags
	manifestPath := flag.String("manifest", "", "Manifest YAML describing subjects and their DICOM series (required)")
	output := flag.String("output", "dataset.dpk", "Output archive file")
	quiet := flag.Bool("quiet", false, "Suppress progress output")

	// Optional content
	previews := flag.Bool("previews", false, "Store a downscaled mid-slice preview per subject")
	previewSize := flag.Int("preview-size", dataset.DefaultPreviewEdge, "Longest edge of preview images in pixels")
	noStats := flag.Bool("no-stats", false, "Skip per-subject intensity statistics")

	// Provenance
	buildID := flag.String("build-id", "", "Build identifier stored in the archive (auto-generated if not specified)")

	help := flag.Bool("help", false, "Show help message")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("dicompack %s\n", version)
		os.Exit(0)
	}

	// Show help
	if *help {
		printHelp()
		os.Exit(0)
	}

	// Validate required arguments
	if *manifestPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --manifest is required\n")
		printUsage()
		os.Exit(1)
	}

	if *previewSize <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --preview-size must be > 0\n")
		printUsage()
		os.Exit(1)
	}

	// Load and validate the manifest
	m, err := manifest.Load(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	subjects := m.SubjectFiles()

	w, err := archive.NewFileWriter(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Assemble the callback chain
	callbacks := []dataset.Callback{dataset.DefaultCallbacks(w)}
	if !*noStats {
		callbacks = append(callbacks, dataset.NewWriteStatsCallback(w))
	}
	if *previews {
		callbacks = append(callbacks, dataset.NewWritePreviewCallback(w, *previewSize))
	}
	provenance := dataset.NewWriteProvenanceCallback(w, *buildID, "dicompack "+version)
	callbacks = append(callbacks, provenance)

	if !*quiet {
		fmt.Println("dicompack")
		fmt.Println("=========")
		fmt.Println()
		fmt.Printf("Packing %d subjects from %s\n", len(subjects), *manifestPath)
		fmt.Println()
	}

	opts := dataset.TraverseOptions{
		Subjects:      subjects,
		SequenceNames: m.Sequences,
		GTNames:       m.GTs,
		Loader:        volume.SeriesLoader{},
		Callback:      dataset.NewCompose(callbacks...),
		Quiet:         *quiet,
	}

	if err := dataset.Traverse(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error packing dataset: %v\n", err)
		os.Exit(1)
	}

	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error finalizing archive: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Println("\n✓ Packing complete!")
		fmt.Printf("  Archive: %s\n", *output)
		if info, err := os.Stat(*output); err == nil {
			fmt.Printf("  Size: %s\n", formatSize(info.Size()))
		}
		fmt.Printf("  Entries: %d\n", len(w.Keys()))
		fmt.Printf("  Subjects: %d\n", len(subjects))
		fmt.Printf("  Sequences: %s\n", strings.Join(m.Sequences, ", "))
		if len(m.GTs) > 0 {
			fmt.Printf("  Ground truths: %s\n", strings.Join(m.GTs, ", "))
		}
		fmt.Printf("  Build ID: %s\n", provenance.BuildID())
	}
}

// formatSize renders a byte count like "12.4 KB" for the summary.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "\nUsage:")
	fmt.Fprintln(os.Stderr, "  dicompack --manifest <FILE> [options]")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
}

func printHelp() {
	fmt.Println("dicompack")
	fmt.Println("=========")
	fmt.Println()
	fmt.Println("Pack DICOM series into a single training-ready dataset archive.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dicompack --manifest <FILE> [options]")
	fmt.Println()
	fmt.Println("Required arguments:")
	fmt.Println("  --manifest <FILE>     Manifest YAML describing subjects and their DICOM series")
	fmt.Println()
	fmt.Println("Optional arguments:")
	fmt.Println("  --output <FILE>       Output archive file (default: 'dataset.dpk')")
	fmt.Println("  --previews            Store a downscaled mid-slice preview per subject")
	fmt.Printf("  --preview-size <N>    Longest edge of preview images in pixels (default: %d)\n", dataset.DefaultPreviewEdge)
	fmt.Println("  --no-stats            Skip per-subject intensity statistics")
	fmt.Println("  --build-id <ID>       Build identifier stored in the archive (auto-generated if not specified)")
	fmt.Println("  --quiet               Suppress progress output")
	fmt.Println()
	fmt.Println("  --help                Show this help message")
	fmt.Println("  --version             Show version")
	fmt.Println()
	fmt.Println("Manifest format:")
	fmt.Println("  dataset: brain-study")
	fmt.Println("  sequences: [t1w, t2w]")
	fmt.Println("  gts: [seg]")
	fmt.Println("  subjects:")
	fmt.Println("    - name: subject01")
	fmt.Println("      files:")
	fmt.Println("        t1w: subject01/t1w/")
	fmt.Println("        t2w: subject01/t2w/")
	fmt.Println("      gts:")
	fmt.Println("        seg: subject01/seg/")
	fmt.Println()
	fmt.Println("  File entries may point at a single DICOM file or at a directory")
	fmt.Println("  holding one series, one slice per file. Relative paths are resolved")
	fmt.Println("  against the manifest's directory.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Pack a study into dataset.dpk")
	fmt.Println("  dicompack --manifest study.yaml")
	fmt.Println()
	fmt.Println("  # Pack with previews and a fixed build identifier")
	fmt.Println("  dicompack --manifest study.yaml --output brain.dpk --previews --build-id nightly-42")
	fmt.Println()
	fmt.Println("  # Pack without intensity statistics, minimal output")
	fmt.Println("  dicompack --manifest study.yaml --no-stats --quiet")
	fmt.Println()
	fmt.Println("Output:")
	fmt.Println("  The program writes a single archive containing:")
	fmt.Println("  - data/sequences/<idx>  stacked image volumes, one entry per subject")
	fmt.Println("  - data/gts/<idx>        stacked ground truth volumes (when the manifest declares gts)")
	fmt.Println("  - meta/*                subject names, shapes, geometry, file lists, provenance")
	fmt.Println()
	fmt.Println("  Subject entries are indexed in manifest order with zero-padded keys,")
	fmt.Println("  so archives list in subject order regardless of the tool reading them.")
}
