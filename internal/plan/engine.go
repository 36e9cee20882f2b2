package plan

import (
	"time"

	"go.uber.org/zap"

	"docplan/internal/doc"
)

// Engine compiles and executes plans against documents. The zero-config
// engine logs nowhere, edits directly and caps selector patterns at the
// default limit; Options adjust each of those.
type Engine struct {
	log          *zap.Logger
	defaultMode  doc.ChangeMode
	patternLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine logging to the given logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithChangeMode sets the change mode for plans that do not pick their own.
func WithChangeMode(m doc.ChangeMode) Option {
	return func(e *Engine) { e.defaultMode = m }
}

// WithPatternLimit caps selector pattern length in bytes.
func WithPatternLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.patternLimit = n
		}
	}
}

// NewEngine returns an engine with the given options applied.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:          zap.NewNop(),
		defaultMode:  doc.ChangeDirect,
		patternLimit: defaultPatternLimit,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute compiles and runs a plan as one atomic change. Either every
// step applies and the document's revision advances once, or the first
// failure discards the working tree and the document stays untouched,
// byte for byte.
func (e *Engine) Execute(d *doc.Document, p Plan) (*Receipt, error) {
	start := time.Now()
	if err := checkExpectedRevision(d, p.ExpectedRevision); err != nil {
		return nil, err
	}
	cp, err := e.Compile(d, p)
	if err != nil {
		return nil, err
	}
	return e.run(d, cp, start)
}

// ExecuteCompiled runs a previously compiled plan. The document must
// still be at the revision the plan was compiled against; compiled
// positions are meaningless on any other tree.
func (e *Engine) ExecuteCompiled(d *doc.Document, cp *CompiledPlan) (*Receipt, error) {
	start := time.Now()
	if err := checkExpectedRevision(d, cp.expectedRev); err != nil {
		return nil, err
	}
	if d.Revision() != cp.revision {
		return nil, newError(CodeRevisionChangedSinceCompile, "",
			"document moved from revision %s to %s since compilation",
			cp.revision, d.Revision()).
			withDetail("compiledAt", uint64(cp.revision)).
			withDetail("actual", uint64(d.Revision()))
	}
	return e.run(d, cp, start)
}

func (e *Engine) run(d *doc.Document, cp *CompiledPlan, start time.Time) (*Receipt, error) {
	before := d.Revision()
	change := d.StartChange(cp.mode)
	if cp.author != "" {
		change.SetAuthor(cp.author)
	}
	x := &execCtx{
		change:   change,
		schema:   d.Schema(),
		resolver: NewStyleResolver(d.Schema()),
	}
	outcomes := make([]StepOutcome, len(cp.items))
	for i, item := range cp.items {
		if item.mutation == nil {
			continue
		}
		out, err := runStep(x, item.mutation)
		if err != nil {
			change.Discard()
			e.log.Warn("plan discarded",
				zap.String("step", item.mutation.step.ID),
				zap.String("op", item.mutation.step.Op.String()),
				zap.Error(err))
			return nil, err
		}
		outcomes[i] = out
		e.log.Debug("step applied",
			zap.String("step", out.StepID),
			zap.String("op", out.Op),
			zap.String("effect", string(out.Effect)),
			zap.Int("matches", out.MatchCount))
	}
	if err := runAsserts(x, e.patternLimit, cp.items, outcomes); err != nil {
		change.Discard()
		e.log.Warn("plan discarded", zap.Error(err))
		return nil, err
	}
	after, err := change.Commit()
	if err != nil {
		return nil, newError(CodeInternal, "", "commit failed: %v", err)
	}
	rcpt := &Receipt{
		Success:  true,
		Revision: RevisionPair{Before: before, After: after},
		Steps:    outcomes,
		Timing:   Timing{TotalMs: time.Since(start).Milliseconds()},
	}
	e.log.Info("plan committed",
		zap.Int("steps", len(cp.items)),
		zap.Uint64("revision", uint64(after)),
		zap.Int64("totalMs", rcpt.Timing.TotalMs))
	return rcpt, nil
}

func checkExpectedRevision(d *doc.Document, want *doc.Revision) error {
	if want == nil {
		return nil
	}
	if d.Revision() != *want {
		return newError(CodeRevisionMismatch, "",
			"document is at revision %s, plan expected %s", d.Revision(), *want).
			withDetail("expected", uint64(*want)).
			withDetail("actual", uint64(d.Revision()))
	}
	return nil
}

// MatchSegment is one block's share of a read-only match.
type MatchSegment struct {
	BlockID string `json:"blockId"`
	From    int    `json:"from"`
	To      int    `json:"to"`
	Text    string `json:"text"`
}

// Match is one selector hit reported by Find: a single segment for an
// in-block match, one segment per block for a cross-block match.
type Match struct {
	Segments []MatchSegment `json:"segments"`
	Text     string         `json:"text"`
}

// Find resolves a selector read-only against the committed tree and
// returns its matches. It counts with the same lenient matcher asserts
// use, so a Find count always agrees with an assert on the same
// selector.
func (e *Engine) Find(d *doc.Document, sel Selector) []Match {
	index := BuildIndex(d.Schema(), d.Root())
	m := newMatcher(d.Schema(), index, e.patternLimit)
	raw, _ := m.matchSelector(sel, false)
	matches := make([]Match, 0, len(raw))
	for _, r := range raw {
		var out Match
		for _, seg := range r.segs {
			text := runeSlice(seg.info.Node.InlineText(), seg.relFrom, seg.relTo)
			out.Segments = append(out.Segments, MatchSegment{
				BlockID: seg.info.ID,
				From:    seg.relFrom,
				To:      seg.relTo,
				Text:    text,
			})
			out.Text += text
		}
		matches = append(matches, out)
	}
	return matches
}

// Find is the package-level convenience over a default engine.
func Find(d *doc.Document, sel Selector) []Match {
	return NewEngine().Find(d, sel)
}
