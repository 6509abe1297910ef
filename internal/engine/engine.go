// Package engine assembles the director: the ingestion path, the ~1s reflex
// loop, and the ~5s reflection loop, all sharing one ContextStore. The engine
// owns component lifecycles and the shutdown ordering (sensors, then loops,
// then external clients).
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/peepingotter/director/internal/adaptive"
	"github.com/peepingotter/director/internal/analyst"
	"github.com/peepingotter/director/internal/attention"
	"github.com/peepingotter/director/internal/config"
	"github.com/peepingotter/director/internal/control"
	"github.com/peepingotter/director/internal/correlation"
	"github.com/peepingotter/director/internal/decision"
	"github.com/peepingotter/director/internal/energy"
	"github.com/peepingotter/director/internal/goal"
	"github.com/peepingotter/director/internal/memory"
	"github.com/peepingotter/director/internal/profile"
	"github.com/peepingotter/director/internal/scene"
	"github.com/peepingotter/director/internal/scoring"
	"github.com/peepingotter/director/internal/sensor"
	"github.com/peepingotter/director/internal/speech"
	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/threads"
	"github.com/peepingotter/director/internal/types"
)

// Options carries the injectable collaborators. Nil fields select defaults:
// an Anthropic-backed analyst/summarizer when ANTHROPIC_API_KEY is set (none
// otherwise), a logging delivery gate, and no control server.
type Options struct {
	Analyst    analyst.Analyst
	Summarizer analyst.Summarizer
	Gate       speech.DeliveryGate

	// ControlSocket enables the unix control socket at this path.
	ControlSocket string

	// Rand seeds the goal planner; nil uses a time seed.
	Rand *rand.Rand
}

// Engine is the assembled director core.
type Engine struct {
	cfg config.Config

	store       *store.ContextStore
	scorer      *scoring.Scorer
	budget      *energy.Budget
	adaptive    *adaptive.Controller
	attention   *attention.Director
	planner     *goal.Planner
	scenes      *scene.Classifier
	correlation *correlation.Engine
	threads     *threads.Tracker
	decisions   *decision.Engine
	speech      *speech.Dispatcher
	memory      *memory.Store
	archive     *memory.Archive
	enricher    *analyst.Enricher
	summarizer  analyst.Summarizer
	profiles    *profile.Manager
	sensors     *sensor.Runner
	control     *control.Server

	extractor correlation.StopwordExtractor

	mu          sync.Mutex
	currentGoal types.BotGoal
	reflections int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New assembles an engine from configuration. The archive and profile
// directory are created under cfg.DataDir.
func New(cfg config.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	archive, err := memory.OpenArchive(cfg.ArchivePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open memory archive: %w", err)
	}

	profiles, err := profile.NewManager(cfg.ProfileDir())
	if err != nil {
		archive.Close()
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}

	an := opts.Analyst
	sum := opts.Summarizer
	if an == nil && sum == nil && !cfg.Analyst.Disabled {
		if ac := cfg.AnalystConfig(); ac.APIKey != "" {
			client := analyst.NewClient(ac)
			an = client
			sum = client
		} else {
			fmt.Printf("[engine] ANTHROPIC_API_KEY not set, running on heuristics only\n")
		}
	}

	e := &Engine{
		cfg:         cfg,
		store:       store.New(cfg.StoreConfig()),
		scorer:      scoring.New(nil),
		budget:      energy.New(cfg.EnergyConfig()),
		adaptive:    adaptive.New(cfg.AdaptiveConfig()),
		attention:   attention.New(attention.DefaultConfig()),
		planner:     goal.New(opts.Rand),
		scenes:      scene.New(scene.DefaultConfig()),
		correlation: correlation.New(correlation.DefaultConfig(), nil),
		threads:     threads.New(threads.DefaultConfig()),
		decisions:   decision.New(),
		memory:      memory.New(cfg.MemoryConfig(), nil, archive),
		archive:     archive,
		summarizer:  sum,
		profiles:    profiles,
		currentGoal: types.GoalObserve,
	}
	e.speech = speech.New(e.budget, opts.Gate)
	e.enricher = analyst.NewEnricher(cfg.EnricherConfig(), an)
	e.enricher.OnResult = e.onAnalysis
	e.sensors = sensor.NewRunner(cfg.SensorConfig(), func(ev sensor.Event) {
		if _, err := e.Ingest(ev.Source, ev.Text, ev.Meta); err != nil {
			fmt.Fprintf(os.Stderr, "[engine] dropped sensor event: %v\n", err)
		}
	})

	if opts.ControlSocket != "" {
		srv, err := control.NewServer(opts.ControlSocket, e.handleCommand)
		if err != nil {
			archive.Close()
			return nil, fmt.Errorf("failed to create control server: %w", err)
		}
		e.control = srv
	}
	return e, nil
}

// Store exposes the context store for tests and the status path.
func (e *Engine) Store() *store.ContextStore {
	return e.store
}

// RegisterSensor attaches an adapter. Must be called before Start.
func (e *Engine) RegisterSensor(a sensor.Adapter) {
	e.sensors.Register(a)
}

// Start launches the control server, the sensors, and both loops.
func (e *Engine) Start(ctx context.Context) error {
	ctx, e.cancel = context.WithCancel(ctx)

	if e.control != nil {
		if err := e.control.Start(ctx); err != nil {
			return fmt.Errorf("failed to start control server: %w", err)
		}
	}
	e.sensors.Start(ctx)

	e.wg.Add(2)
	go e.runLoop(ctx, "reflex", e.cfg.ReflexInterval(), e.reflexTick)
	go e.runLoop(ctx, "reflection", e.cfg.ReflectionInterval(), e.reflectionTick)

	fmt.Printf("[engine] started (reflex %v, reflection %v)\n",
		e.cfg.ReflexInterval(), e.cfg.ReflectionInterval())
	return nil
}

// Stop shuts everything down: sensors first so no new events arrive, then
// the loops, then the control server and archive.
func (e *Engine) Stop() {
	e.sensors.Stop(5 * time.Second)
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		fmt.Fprintf(os.Stderr, "[engine] timeout waiting for loops to stop\n")
	}

	if e.control != nil {
		if err := e.control.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "[engine] control stop: %v\n", err)
		}
	}
	if err := e.archive.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "[engine] archive close: %v\n", err)
	}
	fmt.Printf("[engine] stopped\n")
}

// Goal returns the planner's current objective.
func (e *Engine) Goal() types.BotGoal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentGoal
}

// onAnalysis runs after the enricher applies a deep-analysis result: memory
// promotion and profile fact updates.
func (e *Engine) onAnalysis(event *types.EventItem, a *analyst.Analysis) {
	e.memory.MaybePromote(e.store, event, a.Summary)

	if event.Meta.Username != "" && len(a.UserFacts) > 0 {
		if _, err := e.profiles.Update(event.Meta.Username, types.ProfileUpdate{
			NewFacts: a.UserFacts,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "[engine] profile update for %s: %v\n", event.Meta.Username, err)
		}
	}
}

// handleCommand serves the control socket.
func (e *Engine) handleCommand(cmd control.Command) (map[string]any, error) {
	switch cmd.Type {
	case "status":
		return e.statusData(), nil

	case "inject":
		source := types.Source(cmd.Source)
		if cmd.Source == "" {
			source = types.SourceChat
		}
		ev, err := e.Ingest(source, cmd.Text, types.EventMeta{Username: cmd.Username})
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": ev.ID}, nil

	case "say":
		if cmd.Text == "" {
			return nil, fmt.Errorf("say requires text")
		}
		dec := &types.SpeechDecision{
			Reason:      "operator_say",
			Content:     cmd.Text,
			Priority:    0,
			Source:      types.SourceInternalThought,
			IsInterrupt: true,
		}
		if !e.speech.Dispatch(e.store, dec) {
			return nil, fmt.Errorf("dispatch refused")
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Type)
	}
}

// statusData is the read-only surface: summary state, ranked breadcrumbs,
// budget, threshold regime, threads, goal, archive depth, and the memories
// the current moment would recall.
func (e *Engine) statusData() map[string]any {
	var recalled []string
	for _, m := range e.memory.Retrieve(e.store, memory.BuildSmartQuery(e.store), 5) {
		recalled = append(recalled, m.MemoryContent())
	}
	archived, err := e.archive.MemoryCount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[engine] archive count: %v\n", err)
	}
	return map[string]any{
		"recalled":    recalled,
		"narrative":   e.store.NarrativeLog(),
		"state":       e.store.Status(),
		"breadcrumbs": e.store.Breadcrumbs(8),
		"energy":      e.budget.Status(),
		"adaptive":    e.adaptive.Status(e.store),
		"threads":     e.threads.Stats(),
		"goal":        e.Goal(),
		"memories":    e.store.MemoryCount(),
		"archived":    archived,
		"debts":       e.store.DebtCount(),
		"tilt":        e.correlation.TiltLevel(),
	}
}
