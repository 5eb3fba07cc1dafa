// Command iridiumcore runs the Iridium L-band receiver core: IDA
// bitstream decode, SBD/ACARS reassembly, and voice clustering, wired to
// an external capture/demodulator backend the way go1090's main wires
// rtl_adsb.exe to its decoder. Unlike go1090 this is a headless service
// (no TUI) -- the host map/UI surface is an explicit non-goal of the
// core.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/iridium-toolkit/iridiumcore/internal/ambe"
	"github.com/iridium-toolkit/iridiumcore/internal/capture"
	"github.com/iridium-toolkit/iridiumcore/internal/demod"
	"github.com/iridium-toolkit/iridiumcore/internal/ida"
	"github.com/iridium-toolkit/iridiumcore/internal/metrics"
	"github.com/iridium-toolkit/iridiumcore/internal/output"
	"github.com/iridium-toolkit/iridiumcore/internal/pubsub"
	"github.com/iridium-toolkit/iridiumcore/internal/sbdacars"
	"github.com/iridium-toolkit/iridiumcore/internal/voice"
)

func main() {
	execPath := flag.String("backend", "iridium-extractor", "path to the external capture/demodulator backend")
	diagnosticMode := flag.Bool("diagnostic", false, "suppress RAW and IDA output")
	acarsEnabled := flag.Bool("acars", false, "ACARS-only operation (suppresses RAW output)")
	acarsJSON := flag.Bool("acars-json", false, "emit ACARS records as JSON instead of text")
	stationID := flag.String("station-id", "", "station identifier embedded in ACARS JSON output")
	fileInfo := flag.String("file-info", "", "override the auto-generated RAW file_info tag")
	pubAddr := flag.String("pub-addr", "", "optional address to serve the PUB WebSocket channel on (e.g. :8090); empty disables it")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	app := newApp(appConfig{
		output: output.Config{
			DiagnosticMode: *diagnosticMode,
			AcarsEnabled:   *acarsEnabled,
			AcarsJSON:      *acarsJSON,
			StationID:      *stationID,
			FileInfo:       *fileInfo,
		},
		logger: logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *pubAddr != "" {
		srv := &http.Server{Addr: *pubAddr, Handler: app.hub.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("pub channel listener failed", "err", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
	}
	go app.hub.Run(ctx)

	stopCapture, err := capture.StartReceive(*execPath, app.handleFrame)
	if err != nil {
		logger.Error("capture backend failed to start", "err", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	app.running.Store(false)
	stopCapture()
	app.voice.Flush()
}

type appConfig struct {
	output output.Config
	logger *slog.Logger
}

// app wires one receiver session's pipeline: capture -> IDA decode ->
// reassembly -> SBD/ACARS -> output, plus the independent voice-clustering
// path fed by VocData from the external VOC decoder.
type app struct {
	logger *slog.Logger
	out    *output.Formatter
	reasm  *ida.Reassembler
	sbd    *sbdacars.Extractor
	voice  *voice.Clusterer
	hub    *pubsub.Hub
	met    *metrics.Metrics

	running atomic.Bool
}

func newApp(cfg appConfig) *app {
	a := &app{
		logger: cfg.logger,
		out:    output.NewFormatter(cfg.output),
		reasm:  ida.NewReassembler(),
		sbd:    sbdacars.NewExtractor(),
		voice:  voice.NewClusterer(ambe.NewPlaceholderDecoder(8000)),
		hub:    pubsub.NewHub(cfg.logger),
		met:    metrics.New(),
	}
	a.voice.OnArchived = a.met.VoiceCallsArchived.Inc
	a.voice.OnDiscarded = a.met.VoiceCallsDiscarded.Inc
	a.running.Store(true)
	return a
}

// handleFrame runs one demodulated frame through IDA decode, reassembly,
// and SBD/ACARS extraction, emitting every output line the pipeline
// stage produces to stdout and the optional PUB hub.
func (a *app) handleFrame(frame demod.Frame) {
	if !a.running.Load() {
		return
	}

	if line, ok := a.out.FormatRAW(&frame); ok {
		a.emit(line)
	}

	burst, ok := ida.DecodeBurst(&frame)
	if !ok {
		return
	}
	a.met.BurstsDecoded.Inc()
	if burst.DaLen > 0 && !burst.CRCOK {
		a.met.BurstsCRCFailed.Inc()
	}

	if line, ok := a.out.FormatIDA(burst); ok {
		a.emit(line)
	}

	if timedOut := a.reasm.Flush(frame.TimestampNS); timedOut > 0 {
		a.met.ReassemblyTimedOut.Add(float64(timedOut))
	}
	a.met.ActiveReassemblySlots.Set(float64(a.reasm.ActiveSlots()))

	msg, ok := a.reasm.Push(burst)
	if !ok {
		return
	}
	a.met.ReassemblyCompleted.Inc()

	acarsMsg, ok := a.sbd.Process(msg)
	if !ok {
		return
	}
	a.met.SBDMessagesExtracted.Inc()
	if acarsMsg.Errors > 0 {
		a.met.AcarsParityErrors.Inc()
	}

	if a.out.AcarsJSON() {
		if line, ok := a.out.FormatAcarsJSON(acarsMsg); ok {
			a.emit(line)
		}
		return
	}
	a.emit(a.out.FormatAcarsText(acarsMsg))
}

// FeedVoice ingests one VOC superframe from the external VOC decoder
// collaborator into the voice clusterer.
func (a *app) FeedVoice(voc demod.VocData) {
	if !a.running.Load() {
		return
	}
	a.voice.AddFrame(voc)
}

func (a *app) emit(line string) {
	fmt.Println(line)
	a.hub.Publish(line)
}
