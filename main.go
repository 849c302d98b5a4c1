package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"autoa/internal/calibrate"
	"autoa/internal/chat"
	"autoa/internal/config"
	"autoa/internal/cycle"
	"autoa/internal/detect"
	"autoa/internal/domain"
	"autoa/internal/eventbus"
	"autoa/internal/input"
	"autoa/internal/recipients"
	"autoa/internal/report"
	"autoa/internal/screen"
	"autoa/internal/ui"
	"autoa/internal/vision"
	"autoa/internal/worker"
)

func main() {
	var configPath string
	var headless bool
	var dryRun bool
	flag.StringVar(&configPath, "config", "autoa.toml", "Path to the configuration file")
	flag.BoolVar(&headless, "headless", false, "Run once without the control panel and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "Force dry-run mode regardless of configuration")
	flag.Parse()

	// Set up logging. The terminal belongs to the panel, so the log goes
	// to a file.
	logFile, err := os.OpenFile("autoa.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	configSvc := config.NewConfigService()
	cfg := loadOrCreateConfig(configSvc, configPath)
	if dryRun {
		cfg.Run.DryRun = true
	}

	bus := eventbus.New()

	// Wire the vision and input stack.
	probe := screen.NewProbe()
	windows := screen.NewWindows()
	driver := input.NewDriver()
	store := vision.NewStore(cfg.Templates)
	for _, s := range cfg.Sections {
		if s.File != "" {
			store.Register(s.Template, s.File)
		}
	}
	locator := vision.NewLocator(probe, store, vision.Options{
		DefaultConfidence: cfg.Vision.Confidence,
		FallbackThreshold: cfg.Vision.FallbackThreshold,
	})
	detector := detect.NewDetector(locator, cfg.Geometry, cfg.Vision.ArrowLadder)
	calibrator := calibrate.NewCalibrator(locator, detector, driver, probe, cfg, bus)
	messenger := chat.NewMessenger(locator, driver, windows, cfg)
	reporter := report.NewReporter(cfg.Reports, probe, bus, cfg.Debug)

	allowed, err := recipients.Load(cfg.Recipients)
	if err != nil {
		log.Printf("recipients: %v", err)
	}
	if cfg.Recipients != "" && allowed == nil {
		bus.Publish(eventbus.LogAppendedEvent{
			Line: fmt.Sprintf("recipients file %q missing or empty, allowing all contacts", cfg.Recipients),
		})
	}
	// The contact reader identifies rows by fingerprint, so a list of
	// display names would silently exclude everything.
	for name := range allowed {
		if !cycle.IsFingerprint(name) {
			bus.Publish(eventbus.LogAppendedEvent{
				Line: fmt.Sprintf("recipients: %q is not a row fingerprint and will never match; collect fingerprints from a debug dry run", name),
			})
		}
	}

	filter := recipients.Filter(allowed)
	runner := worker.NewRunner(bus, cfg, windows, calibrator, locator, driver, store, probe)
	runner.Crops = reporter
	runner.NewCycle = func(sidebar domain.Region) worker.CycleRunner {
		list := cycle.NewVisionList(probe, locator, driver, sidebar, cfg.Geometry, cfg.Vision.Confidence)
		c := cycle.NewCycler(list, messenger, bus, time.Duration(cfg.Run.SettleMillis)*time.Millisecond)
		c.Filter = filter
		c.Crops = reporter
		c.Delay = func() time.Duration { return runner.ThrottleDelay(cfg.Run.DelaySeconds) }
		return c
	}

	checks := runner.Checks()

	if headless {
		runHeadless(bus, cfg, runner, checks)
		return
	}

	// Create event channel for the UI.
	eventChan := make(chan eventbus.DomainEvent, 100)
	forwardEvent := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			log.Println("Event channel full, dropping event")
		}
	}
	for _, t := range []eventbus.EventType{
		domain.EventLogAppended,
		domain.EventProgressUpdated,
		domain.EventStepChanged,
		domain.EventRunStarted,
		domain.EventRunFinished,
		domain.EventSectionReport,
		domain.EventContactHandled,
		domain.EventScreenshotSaved,
		domain.EventChecksCompleted,
		domain.EventError,
	} {
		bus.Subscribe(t, forwardEvent)
	}

	uiModel := ui.NewModel(bus, cfg, runner, reporter)
	p := tea.NewProgram(uiModel, tea.WithAltScreen())

	// Forward bus events into the Bubble Tea loop.
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	// Re-announce the startup checks now that the UI is subscribed.
	runner.Checks()

	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	runner.Cancel()
	close(eventChan)
}

// runHeadless starts one run with the configured parameters and waits for
// its terminal event.
func runHeadless(bus eventbus.EventBus, cfg *config.Config, runner *worker.Runner, checks []domain.CheckResult) {
	for _, c := range checks {
		if c.Blocker && !c.OK && !cfg.Run.DryRun {
			fmt.Printf("check %s failed: %s\n", c.Name, c.Detail)
			os.Exit(1)
		}
	}

	done := make(chan eventbus.RunFinishedEvent, 1)
	bus.Subscribe(domain.EventRunFinished, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.RunFinishedEvent); ok {
			select {
			case done <- ev:
			default:
			}
		}
	})
	bus.Subscribe(domain.EventLogAppended, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.LogAppendedEvent); ok {
			fmt.Println(ev.Line)
		}
	})

	err := runner.Start(worker.RunParams{
		Limit:        cfg.Run.FriendLimit,
		Message:      cfg.Run.Message,
		DelaySeconds: cfg.Run.DelaySeconds,
		DryRun:       cfg.Run.DryRun,
	})
	if err != nil {
		fmt.Printf("Error starting run: %v\n", err)
		os.Exit(1)
	}

	ev := <-done
	fmt.Printf("run %s: %d sent, %d failed\n", ev.Status,
		len(ev.Result.Processed), len(ev.Result.Failed))
	if ev.Status != domain.RunCompleted {
		os.Exit(1)
	}
}

// loadOrCreateConfig loads the config at path or writes the defaults there.
func loadOrCreateConfig(configSvc config.ConfigService, path string) *config.Config {
	if _, err := os.Stat(path); err == nil {
		if cfg, err := configSvc.LoadFromPath(path); err == nil {
			log.Printf("Loaded config from %s", path)
			return cfg
		} else {
			log.Printf("Failed to load config: %v", err)
		}
	}

	log.Printf("Creating new config at %s", path)
	cfg := config.DefaultConfig()
	if err := configSvc.SaveToPath(cfg, path); err != nil {
		log.Printf("Failed to save config: %v", err)
	}
	return cfg
}
