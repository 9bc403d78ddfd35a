package signature

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"scamwatch/internal/core/corpus"
	perr "scamwatch/internal/platform/errors"
	"scamwatch/internal/platform/logger"
)

// Embedder produces one embedding vector per input text, in input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config holds the scoring thresholds. These gates apply identically at
// every entry point; there is no second looser pass anywhere
type Config struct {
	// MinSignature is the minimum fingerprint agreement for a corpus
	// entry to count as a match
	MinSignature float64
	// MinSemantic is the minimum embedding cosine similarity
	MinSemantic float64
	// Threshold is the minimum combined score, and also the bar a
	// Verdict must clear for Flagged to report true
	Threshold float64
}

// DefaultConfig returns the production gates
func DefaultConfig() Config {
	return Config{MinSignature: 0.5, MinSemantic: 0.7, Threshold: 0.8}
}

// Verdict is the outcome of analyzing one message
type Verdict struct {
	Similarity      float64  `json:"similarity"`
	MatchedCategory string   `json:"matched_category,omitempty"`
	Patterns        []string `json:"patterns_detected,omitempty"`
	Flags           []string `json:"flags,omitempty"`
}

// Flagged reports whether the verdict clears the configured threshold
func (v Verdict) Flagged(cfg Config) bool {
	return v.Similarity >= cfg.Threshold
}

type corpusEntry struct {
	category  string
	processed string
	flags     []string
	sig       Signature
	embedding []float32
}

// Engine scores messages against the corpus. Corpus embeddings are
// computed lazily on first use; concurrent callers share one warmup and
// a failed warmup is retried by the next caller
type Engine struct {
	store *corpus.Store
	emb   Embedder
	cfg   Config
	log   logger.Logger

	sf      singleflight.Group
	ready   atomic.Bool
	mu      sync.RWMutex
	entries []corpusEntry
}

// NewEngine creates an Engine over the given corpus and embedder. Zero
// thresholds in cfg fall back to the defaults
func NewEngine(store *corpus.Store, emb Embedder, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MinSignature <= 0 {
		cfg.MinSignature = def.MinSignature
	}
	if cfg.MinSemantic <= 0 {
		cfg.MinSemantic = def.MinSemantic
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	return &Engine{
		store: store,
		emb:   emb,
		cfg:   cfg,
		log:   *logger.Named("signature"),
	}
}

// Config returns the active thresholds
func (e *Engine) Config() Config { return e.cfg }

// warm embeds the corpus once. Callers block on a shared in-flight
// warmup; on failure the ready flag stays down so a later call retries
func (e *Engine) warm(ctx context.Context) error {
	if e.ready.Load() {
		return nil
	}
	_, err, _ := e.sf.Do("warm", func() (any, error) {
		if e.ready.Load() {
			return nil, nil
		}
		msgs := e.store.Messages()
		entries := make([]corpusEntry, 0, len(msgs))
		texts := make([]string, 0, len(msgs))
		for _, m := range msgs {
			entries = append(entries, corpusEntry{
				category:  m.Category,
				processed: Preprocess(m.Text),
				flags:     m.Flags,
				sig:       Extract(m.Text),
			})
			texts = append(texts, Preprocess(m.Text))
		}
		if len(texts) > 0 {
			vecs, err := e.emb.Embed(ctx, texts)
			if err != nil {
				return nil, perr.Wrapf(err, perr.CodeOf(err), "corpus embedding warmup failed")
			}
			for i := range entries {
				entries[i].embedding = vecs[i]
			}
		}
		e.mu.Lock()
		e.entries = entries
		e.mu.Unlock()
		e.ready.Store(true)
		e.log.Info().Int("entries", len(entries)).Msg("corpus embeddings ready")
		return nil, nil
	})
	return err
}

// Reload drops the prepared corpus so the next Analyze re-embeds it.
// Call after mutating the corpus store
func (e *Engine) Reload() {
	e.ready.Store(false)
}

// Analyze scores one message. Messages linking a denylisted host short
// circuit to a certain verdict without touching the embedder
func (e *Engine) Analyze(ctx context.Context, text string) (Verdict, error) {
	sig := Extract(text)
	v := Verdict{Patterns: sig.Patterns()}

	for host := range sig.Hosts {
		if e.store.KnownBad(host) {
			v.Similarity = 1.0
			v.MatchedCategory = "known_malicious_domain"
			v.Flags = []string{"malicious_url"}
			return v, nil
		}
	}

	if err := e.warm(ctx); err != nil {
		return Verdict{}, err
	}

	processed := Preprocess(text)
	vecs, err := e.emb.Embed(ctx, []string{processed})
	if err != nil {
		return Verdict{}, perr.Wrapf(err, perr.CodeOf(err), "message embedding failed")
	}
	embedding := vecs[0]

	e.mu.RLock()
	entries := e.entries
	e.mu.RUnlock()

	flags := map[string]struct{}{}
	best := -1.0
	for _, ent := range entries {
		sigSim := Compare(sig, ent.sig)
		if sigSim < e.cfg.MinSignature {
			continue
		}
		semSim := Cosine(embedding, ent.embedding)
		if semSim < e.cfg.MinSemantic {
			continue
		}
		combined := SeqRatio(processed, ent.processed)*0.3 + semSim*0.4 + sigSim*0.3
		if combined < e.cfg.Threshold || combined <= best {
			continue
		}
		best = combined
		v.Similarity = combined
		v.MatchedCategory = ent.category
		flags = map[string]struct{}{}
		for _, f := range ent.flags {
			flags[f] = struct{}{}
		}
	}

	if sig.Monetary {
		flags["contains_monetary"] = struct{}{}
	}
	if sig.Contact {
		flags["contact_solicitation"] = struct{}{}
	}
	if sig.Urgency {
		flags["urgency_tactics"] = struct{}{}
	}
	for f := range flags {
		v.Flags = append(v.Flags, f)
	}
	sort.Strings(v.Flags)
	return v, nil
}
