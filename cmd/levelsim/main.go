// The levelsim command fetches an HLS master playlist, runs it through the
// level selection pipeline and prints the resulting quality ladder.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"abrlevels"
	"abrlevels/internal/manifest"
)

const (
	version = "1.0.0"
)

func main() {
	var (
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Show version and exit")
		startLevel  = flag.Int("start-level", -1, "Explicit start level index (-1 = automatic)")
		manualLevel = flag.Int("manual", -1, "Manual level override to apply after processing (-1 = automatic)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "levelsim - HLS level selection inspector v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <master-playlist-url>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  <master-playlist-url>    URL of the HLS master playlist\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s https://example.com/master.m3u8\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --start-level 2 https://example.com/master.m3u8\n", os.Args[0])
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("levelsim v%s\n", version)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: master playlist URL is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	logLevel := hclog.Info
	if *verbose {
		logLevel = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "levelsim",
		Level:  logLevel,
		Output: os.Stderr,
	})

	if err := run(flag.Arg(0), *startLevel, *manualLevel, logger); err != nil {
		logger.Error("levelsim failed", "error", err)
		os.Exit(1)
	}
}

func run(masterURL string, startLevel, manualLevel int, logger hclog.Logger) error {
	logger.Info("fetching master playlist", "url", masterURL)
	master, err := manifest.FetchMaster(masterURL)
	if err != nil {
		return fmt.Errorf("failed to fetch master playlist: %w", err)
	}
	logger.Info("parsed master playlist",
		"variants", len(master.Records),
		"audioTracks", len(master.AudioTracks),
		"subtitleTracks", len(master.SubtitleTracks),
	)

	cfg := abrlevels.Config{
		Capability:    abrlevels.DefaultCapability(),
		Logger:        logger,
		AutoStartLoad: true,
	}
	if startLevel >= 0 {
		cfg.StartLevel = &startLevel
	}

	bus := abrlevels.NewBus()

	bus.On(abrlevels.LevelSwitching, func(_ abrlevels.Kind, data any) {
		d := data.(abrlevels.LevelSwitchingData)
		logger.Info("level switching", "from", d.PrevLevel, "to", d.Level, "bitrate", d.Bitrate, "height", d.Height)
	})
	bus.On(abrlevels.LevelLoading, func(_ abrlevels.Kind, data any) {
		d := data.(abrlevels.LevelLoadingData)
		logger.Info("playlist load requested", "level", d.Level, "urlId", d.URLID, "url", d.Directives.AppendTo(d.URL))
	})
	bus.On(abrlevels.Error, func(_ abrlevels.Kind, data any) {
		d := data.(abrlevels.ErrorData)
		if d.Fatal {
			logger.Error("fatal engine error", "kind", d.Kind, "reason", d.Reason)
			return
		}
		logger.Warn("engine error", "kind", d.Kind, "reason", d.Reason, "level", d.Level)
	})

	var parsed *abrlevels.ManifestParsedData
	bus.On(abrlevels.ManifestParsed, func(_ abrlevels.Kind, data any) {
		d := data.(abrlevels.ManifestParsedData)
		parsed = &d
	})

	ctl := abrlevels.New(bus, cfg)

	bus.Emit(abrlevels.ManifestLoading, nil)
	bus.Emit(abrlevels.ManifestLoaded, abrlevels.ManifestLoadedData{
		URL:            masterURL,
		Records:        master.Records,
		AudioTracks:    master.AudioTracks,
		SubtitleTracks: master.SubtitleTracks,
	})

	if parsed == nil {
		return fmt.Errorf("manifest processing produced no playable levels")
	}

	fmt.Printf("quality ladder (%d levels, ascending):\n", len(parsed.Levels))
	for i, lvl := range parsed.Levels {
		marker := " "
		if i == ctl.Level() {
			marker = "*"
		}
		fmt.Printf("%s %2d  %8d bps  %dx%d  %5.2f fps  %-24s  fallbacks=%d\n",
			marker, i, lvl.Bitrate, lvl.Width, lvl.Height, lvl.FrameRate, lvl.Codecs, len(lvl.URLs))
	}
	fmt.Printf("first level: %d  start level: %d  current: %d\n",
		parsed.FirstLevel, ctl.StartLevel(), ctl.Level())

	if manualLevel >= 0 {
		ctl.SetManualLevel(manualLevel)
		fmt.Printf("after manual override %d: current=%d nextLoadLevel=%d\n",
			manualLevel, ctl.Level(), ctl.NextLoadLevel())
	}
	return nil
}
