// Package correlation scans the live tiers for multi-event patterns and emits
// synthetic system-pattern events: emotional momentum, meme moments, tilt,
// skill issues, backseating, victories, fear spikes, visual fixation, and
// dead-air classification.
package correlation

import (
	"fmt"
	"strings"
	"time"

	"github.com/peepingotter/director/internal/store"
	"github.com/peepingotter/director/internal/types"
)

// Config holds the engine's cooldowns and trigger levels.
type Config struct {
	PatternCooldown    time.Duration // min gap between emissions of one pattern
	SkillIssueCooldown time.Duration // skill-issue gets a longer gap
	TiltRise           float64       // tilt added per frustration signal
	TiltDecay          float64       // tilt removed per cycle
	TiltWarnLevel      float64       // tilt level that emits a warning
	FixationTrigger    float64       // fixation counter level that fires
	FixationDecay      float64       // per-cycle multiplier on all counters
	MemeChatBurst      int           // chat messages needed alongside a visual
	VoidAfter          time.Duration // silence length considered dead air
}

// DefaultConfig returns the production trigger levels.
func DefaultConfig() Config {
	return Config{
		PatternCooldown:    15 * time.Second,
		SkillIssueCooldown: 20 * time.Second,
		TiltRise:           0.25,
		TiltDecay:          0.05,
		TiltWarnLevel:      0.6,
		FixationTrigger:    3.0,
		FixationDecay:      0.7,
		MemeChatBurst:      4,
		VoidAfter:          45 * time.Second,
	}
}

// SubjectExtractor pulls the subject noun out of a visual description for
// fixation tracking. The default implementation is a stopword heuristic;
// swap in something smarter without touching the engine.
type SubjectExtractor interface {
	Subject(text string) string
}

// Engine detects cross-event patterns. Not safe for concurrent use; the
// reflection loop is its only caller.
type Engine struct {
	cfg       Config
	extractor SubjectExtractor

	lastEmit  map[types.PatternType]time.Time
	tilt      float64
	fixations map[string]float64

	// Silence clock. Live tiers only hold ~30s of events, so the last heard
	// speech and chat are remembered here to honor the longer void window.
	startedAt    time.Time
	lastSpeechAt time.Time
	lastChatAt   time.Time

	now func() time.Time
}

// New creates an Engine. A nil extractor selects the stopword heuristic.
func New(cfg Config, extractor SubjectExtractor) *Engine {
	if extractor == nil {
		extractor = StopwordExtractor{}
	}
	return &Engine{
		cfg:       cfg,
		extractor: extractor,
		lastEmit:  make(map[types.PatternType]time.Time),
		fixations: make(map[string]float64),
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// TiltLevel returns the current tilt accumulator, for the status surface.
func (e *Engine) TiltLevel() float64 {
	return e.tilt
}

// Pattern is one detected pattern before it becomes a synthetic event.
type Pattern struct {
	Type  types.PatternType
	Text  string
	Score types.EventScore
	Meta  types.EventMeta
}

// Scan runs every detector over the current tiers and emits the surviving
// patterns into the store as system-pattern events. Returns what was emitted.
func (e *Engine) Scan(s *store.ContextStore) []*types.EventItem {
	layers := s.Snapshot()
	live := append(append([]*types.EventItem(nil), layers.Immediate...), layers.Recent...)

	var found []Pattern
	if p, ok := e.detectMomentum(s); ok {
		found = append(found, p)
	}
	if p, ok := e.detectMeme(live); ok {
		found = append(found, p)
	}
	if p, ok := e.detectTilt(live); ok {
		found = append(found, p)
	}
	if p, ok := e.detectSkillIssue(live); ok {
		found = append(found, p)
	}
	if p, ok := e.detectBackseat(live); ok {
		found = append(found, p)
	}
	if p, ok := e.detectVictory(live); ok {
		found = append(found, p)
	}
	if p, ok := e.detectFear(live); ok {
		found = append(found, p)
	}
	if p, ok := e.detectFixation(live); ok {
		found = append(found, p)
	}
	if p, ok := e.classifySilence(s, live); ok {
		found = append(found, p)
	}

	var emitted []*types.EventItem
	now := e.now()
	for _, p := range found {
		cooldown := e.cfg.PatternCooldown
		if p.Type == types.PatternSkillIssue {
			cooldown = e.cfg.SkillIssueCooldown
		}
		if now.Sub(e.lastEmit[p.Type]) < cooldown {
			continue
		}
		e.lastEmit[p.Type] = now

		meta := p.Meta
		meta.Pattern = p.Type
		fmt.Printf("[correlation] pattern %s: %s\n", p.Type, p.Text)
		emitted = append(emitted, s.AddEvent(types.SourceSystemPattern, p.Text, meta, p.Score))
	}
	return emitted
}

// sentimentValue maps sentiment labels to a signed scale for momentum math.
func sentimentValue(sentiment string) int {
	switch sentiment {
	case "ecstatic":
		return 2
	case "positive", "excited", "happy":
		return 1
	case "negative", "annoyed":
		return -1
	case "frustrated", "angry", "scared":
		return -2
	default:
		return 0
	}
}

func (e *Engine) detectMomentum(s *store.ContextStore) (Pattern, bool) {
	history := s.SentimentHistory()
	if len(history) < 3 {
		return Pattern{}, false
	}
	first := sentimentValue(history[0])
	last := sentimentValue(history[len(history)-1])
	delta := last - first

	switch {
	case delta >= 2:
		s.SetMomentum(types.MomentumEscalatingPositive)
		return Pattern{
			Type:  types.PatternVictory,
			Text:  "The mood is escalating fast, things are heating up",
			Score: types.EventScore{Interestingness: 0.7, Urgency: 0.4, ConversationalValue: 0.7, EmotionalIntensity: 0.8, TopicRelevance: 0.6},
		}, true
	case delta <= -2:
		s.SetMomentum(types.MomentumEscalatingNegative)
		return Pattern{
			Type:  types.PatternMomentumNeg,
			Text:  "The mood is souring, frustration is building",
			Score: types.EventScore{Interestingness: 0.7, Urgency: 0.6, ConversationalValue: 0.6, EmotionalIntensity: 0.8, TopicRelevance: 0.6},
		}, true
	}
	s.SetMomentum(types.MomentumStable)
	return Pattern{}, false
}

func (e *Engine) detectMeme(live []*types.EventItem) (Pattern, bool) {
	var visual *types.EventItem
	chatBurst := 0
	for _, ev := range live {
		switch {
		case ev.Source == types.SourceVisualChange && ev.Score.Interestingness >= 0.6:
			if visual == nil || ev.Score.Interestingness > visual.Score.Interestingness {
				visual = ev
			}
		case ev.Source.IsChat():
			chatBurst++
		}
	}
	if visual == nil || chatBurst < e.cfg.MemeChatBurst {
		return Pattern{}, false
	}
	return Pattern{
		Type:  types.PatternMeme,
		Text:  fmt.Sprintf("Chat is erupting over: %s", visual.Text),
		Score: types.EventScore{Interestingness: 0.85, Urgency: 0.5, ConversationalValue: 0.9, EmotionalIntensity: 0.7, TopicRelevance: 0.8},
		Meta:  types.EventMeta{EventText: visual.Text},
	}, true
}

var frustrationWords = []string{
	"ugh", "argh", "ffs", "damn", "dammit", "stupid", "hate this", "come on",
	"are you kidding", "again", "bruh",
}

func (e *Engine) detectTilt(live []*types.EventItem) (Pattern, bool) {
	signals := 0
	for _, ev := range live {
		if !ev.Source.IsSpeech() {
			continue
		}
		lower := strings.ToLower(ev.Text)
		for _, w := range frustrationWords {
			if strings.Contains(lower, w) {
				signals++
				break
			}
		}
		if ev.Meta.Sentiment == "frustrated" || ev.Meta.Sentiment == "angry" {
			signals++
		}
	}

	e.tilt += float64(signals) * e.cfg.TiltRise
	e.tilt -= e.cfg.TiltDecay
	if e.tilt < 0 {
		e.tilt = 0
	}
	if e.tilt > 1 {
		e.tilt = 1
	}

	if e.tilt <= e.cfg.TiltWarnLevel {
		return Pattern{}, false
	}
	return Pattern{
		Type:  types.PatternTilt,
		Text:  "The operator is tilting hard, handle with care",
		Score: types.EventScore{Interestingness: 0.75, Urgency: 0.7, ConversationalValue: 0.6, EmotionalIntensity: 0.9, TopicRelevance: 0.5},
		Meta:  types.EventMeta{Level: e.tilt},
	}, true
}

var deathWords = []string{"died", "death", "game over", "you died", "wasted", "wiped", "lost the"}

func (e *Engine) detectSkillIssue(live []*types.EventItem) (Pattern, bool) {
	deaths := 0
	for _, ev := range live {
		if ev.Source != types.SourceVisualChange && ev.Source != types.SourceAmbientAudio {
			continue
		}
		lower := strings.ToLower(ev.Text)
		for _, w := range deathWords {
			if strings.Contains(lower, w) {
				deaths++
				break
			}
		}
	}
	if deaths < 2 {
		return Pattern{}, false
	}
	return Pattern{
		Type:  types.PatternSkillIssue,
		Text:  fmt.Sprintf("Repeated failure detected (%d deaths), classic skill issue", deaths),
		Score: types.EventScore{Interestingness: 0.9, Urgency: 0.6, ConversationalValue: 0.9, EmotionalIntensity: 0.6, TopicRelevance: 0.8},
	}, true
}

var adviceWords = []string{"you should", "just use", "why don't you", "try the", "go left", "go right", "use the"}
var confusionWords = []string{"what do i", "how do i", "where is", "i'm lost", "im lost", "confused", "no idea"}

func (e *Engine) detectBackseat(live []*types.EventItem) (Pattern, bool) {
	advice, confusion := 0, 0
	for _, ev := range live {
		lower := strings.ToLower(ev.Text)
		if ev.Source.IsChat() {
			for _, w := range adviceWords {
				if strings.Contains(lower, w) {
					advice++
					break
				}
			}
		}
		if ev.Source.IsSpeech() {
			for _, w := range confusionWords {
				if strings.Contains(lower, w) {
					confusion++
					break
				}
			}
		}
	}
	if advice < 2 || confusion == 0 {
		return Pattern{}, false
	}
	return Pattern{
		Type:  types.PatternBackseat,
		Text:  "Chat is backseating while the operator flounders",
		Score: types.EventScore{Interestingness: 0.6, Urgency: 0.3, ConversationalValue: 0.7, EmotionalIntensity: 0.4, TopicRelevance: 0.6},
	}, true
}

var excitementWords = []string{"let's go", "lets go", "yes!", "finally", "got it", "gg", "we did it", "victory", "clutch"}

func (e *Engine) detectVictory(live []*types.EventItem) (Pattern, bool) {
	for _, ev := range live {
		if !ev.Source.IsSpeech() && !ev.Source.IsChat() {
			continue
		}
		lower := strings.ToLower(ev.Text)
		excited := false
		for _, w := range excitementWords {
			if strings.Contains(lower, w) {
				excited = true
				break
			}
		}
		if !excited {
			continue
		}
		positive := sentimentValue(ev.Meta.Sentiment) > 0
		if ev.Score.EmotionalIntensity > 0.6 || positive {
			return Pattern{
				Type:  types.PatternVictory,
				Text:  fmt.Sprintf("Big win moment: %s", ev.Text),
				Score: types.EventScore{Interestingness: 0.9, Urgency: 0.7, ConversationalValue: 0.9, EmotionalIntensity: 0.9, TopicRelevance: 0.7},
			}, true
		}
	}
	return Pattern{}, false
}

func (e *Engine) detectFear(live []*types.EventItem) (Pattern, bool) {
	for _, ev := range live {
		if ev.Meta.Sentiment == "scared" || ev.Score.Urgency > 0.85 {
			if ev.Source == types.SourceSystemPattern {
				continue
			}
			return Pattern{
				Type:  types.PatternFear,
				Text:  "Fear spike detected, something scary is happening",
				Score: types.EventScore{Interestingness: 0.8, Urgency: 0.8, ConversationalValue: 0.6, EmotionalIntensity: 0.95, TopicRelevance: 0.6},
			}, true
		}
	}
	return Pattern{}, false
}

// detectFixation tracks recurring subjects in visual descriptions with a
// decaying counter. Crossing the trigger fires once and partially resets so
// the same subject can fire again only after renewed attention.
func (e *Engine) detectFixation(live []*types.EventItem) (Pattern, bool) {
	for k := range e.fixations {
		e.fixations[k] *= e.cfg.FixationDecay
		if e.fixations[k] < 0.05 {
			delete(e.fixations, k)
		}
	}

	for _, ev := range live {
		if ev.Source != types.SourceVisualChange {
			continue
		}
		subject := e.extractor.Subject(ev.Text)
		if subject == "" {
			continue
		}
		e.fixations[subject]++
	}

	for subject, count := range e.fixations {
		if count > e.cfg.FixationTrigger {
			e.fixations[subject] = 1.0
			return Pattern{
				Type:  types.PatternFixation,
				Text:  fmt.Sprintf("The camera keeps coming back to the %s", subject),
				Score: types.EventScore{Interestingness: 0.7, Urgency: 0.3, ConversationalValue: 0.8, EmotionalIntensity: 0.3, TopicRelevance: 0.7},
				Meta:  types.EventMeta{Entity: subject},
			}, true
		}
	}
	return Pattern{}, false
}

// classifySilence distinguishes the flavors of nobody-talking. Only a true
// engagement void emits a pattern; the other flavors are intentional quiet.
func (e *Engine) classifySilence(s *store.ContextStore, live []*types.EventItem) (Pattern, bool) {
	hasGameText := false
	for _, ev := range live {
		switch {
		case ev.Source.IsSpeech():
			if ev.Timestamp.After(e.lastSpeechAt) {
				e.lastSpeechAt = ev.Timestamp
			}
		case ev.Source.IsChat():
			if ev.Timestamp.After(e.lastChatAt) {
				e.lastChatAt = ev.Timestamp
			}
		case ev.Source == types.SourceVisualChange:
			hasGameText = true
		}
	}

	// Before anything is heard, startup counts as the last utterance.
	lastSpeech := e.lastSpeechAt
	if lastSpeech.IsZero() {
		lastSpeech = e.startedAt
	}
	lastChat := e.lastChatAt
	if lastChat.IsZero() {
		lastChat = e.startedAt
	}

	now := e.now()
	quiet := now.Sub(lastSpeech) > e.cfg.VoidAfter && now.Sub(lastChat) > e.cfg.VoidAfter
	if !quiet {
		return Pattern{}, false
	}

	// Game text on screen: the operator is reading, not absent.
	if hasGameText {
		return Pattern{}, false
	}
	// Suspense and contemplation are deliberate quiet, not dead air.
	if s.Mood() == types.MoodScared || s.Momentum() == types.MomentumEscalatingNegative {
		return Pattern{}, false
	}

	return Pattern{
		Type:  types.PatternVoid,
		Text:  "Dead air, nobody has said anything in a while",
		Score: types.EventScore{Interestingness: 0.6, Urgency: 0.4, ConversationalValue: 0.8, EmotionalIntensity: 0.1, TopicRelevance: 0.3},
	}, true
}
