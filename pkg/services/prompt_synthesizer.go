package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/catalog"
	"github.com/malexternalsc/great-expectation-LLM/pkg/combinator"
	"github.com/malexternalsc/great-expectation-LLM/pkg/ledger"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
	"github.com/malexternalsc/great-expectation-LLM/pkg/logging"
	"github.com/malexternalsc/great-expectation-LLM/pkg/parser"
	"github.com/malexternalsc/great-expectation-LLM/pkg/prompts"
	"github.com/malexternalsc/great-expectation-LLM/pkg/retrieval"
	"github.com/malexternalsc/great-expectation-LLM/pkg/vectorstore"
)

// PromptSynthesizer turns one category combination into a batch of
// requirement prompts appended to today's ledger.
type PromptSynthesizer interface {
	Synthesize(ctx context.Context, combo combinator.Combination) CombinationOutcome
}

// CombinationOutcome reports what happened to one combination.
type CombinationOutcome struct {
	Outcome
	Combination combinator.Combination
	Domains     []string
	Examples    int
	Prompts     int
	LedgerPath  string
}

// PromptSynthesizerConfig tunes prompt synthesis.
type PromptSynthesizerConfig struct {
	Model           string
	Temperature     float64
	MinDomains      int
	MaxDomains      int
	PromptsPerBatch int
	// DedupeLedger drops prompts already present in today's ledger.
	DedupeLedger bool
	// IndexGeneratedPrompts inserts appended prompts into the example index.
	IndexGeneratedPrompts bool
}

// DefaultPromptSynthesizerConfig returns the defaults of the generation loop.
func DefaultPromptSynthesizerConfig() PromptSynthesizerConfig {
	return PromptSynthesizerConfig{
		Model:           "gpt-4o-mini",
		Temperature:     0.7,
		MinDomains:      2,
		MaxDomains:      5,
		PromptsPerBatch: prompts.DefaultPromptCount,
	}
}

type promptSynthesizer struct {
	catalog   *catalog.Catalog
	domains   []string
	retriever *retrieval.Retriever
	client    llm.Client
	ledger    *ledger.Ledger
	index     vectorstore.Index
	config    PromptSynthesizerConfig
	logger    *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewPromptSynthesizer creates a synthesizer. index is only used when
// config.IndexGeneratedPrompts is set and may otherwise be nil.
func NewPromptSynthesizer(
	cat *catalog.Catalog,
	retriever *retrieval.Retriever,
	client llm.Client,
	ldg *ledger.Ledger,
	index vectorstore.Index,
	rng *rand.Rand,
	config PromptSynthesizerConfig,
	logger *zap.Logger,
) PromptSynthesizer {
	return &promptSynthesizer{
		catalog:   cat,
		domains:   prompts.Domains,
		retriever: retriever,
		client:    client,
		ledger:    ldg,
		index:     index,
		config:    config,
		logger:    logger.Named("prompt-synthesizer"),
		rng:       rng,
	}
}

var _ PromptSynthesizer = (*promptSynthesizer)(nil)

func (s *promptSynthesizer) sampleDomains() []string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return combinator.SampleDomains(s.rng, s.domains, s.config.MinDomains, s.config.MaxDomains)
}

func (s *promptSynthesizer) Synthesize(ctx context.Context, combo combinator.Combination) CombinationOutcome {
	out := CombinationOutcome{Combination: combo}
	item := combo.String()

	out.Domains = s.sampleDomains()

	definitions := make([]string, len(combo))
	for i, name := range combo {
		definitions[i] = s.catalog.DefinitionOrDefault(name)
	}
	section := retrieval.BuildConstraintsSection(combo, definitions)

	examples := s.retriever.Examples(ctx, section, len(out.Domains))
	out.Examples = len(examples)

	request := prompts.BuildGenerationPrompt(prompts.GenerationInput{
		Domains:            out.Domains,
		Constraints:        combo,
		Definitions:        definitions,
		ConstraintsSection: section,
		Examples:           examples,
		PromptCount:        s.config.PromptsPerBatch,
	})

	s.logger.Debug("Requesting prompts",
		zap.String("combination", item),
		zap.Strings("domains", out.Domains),
		zap.Int("examples", len(examples)))

	response, err := s.client.Complete(ctx, &llm.Request{
		Model:       s.config.Model,
		Temperature: s.config.Temperature,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: request}},
	})
	if err != nil {
		out.Outcome = failed(item, "prompt generation failed", err)
		return out
	}

	extracted := parser.ExtractPrompts(response)
	if len(extracted) == 0 {
		s.logger.Debug("No numbered prompts in response",
			zap.String("combination", item),
			zap.String("response", logging.Snippet(response)))
		out.Outcome = skipped(item, "no numbered prompts in response")
		return out
	}

	if s.config.DedupeLedger {
		kept, err := s.ledger.Filter(extracted)
		if err != nil {
			out.Outcome = failed(item, "read ledger", err)
			return out
		}
		if len(kept) == 0 {
			out.Outcome = skipped(item, "all prompts already in ledger")
			return out
		}
		extracted = kept
	}

	path, err := s.ledger.Append(strings.Join(extracted, "\n"))
	out.LedgerPath = path
	if err != nil {
		out.Outcome = failed(item, "append to ledger", err)
		return out
	}
	out.Prompts = len(extracted)

	if s.config.IndexGeneratedPrompts && s.index != nil {
		if err := s.index.Insert(ctx, extracted, path); err != nil {
			// Non-fatal: the prompts are already in the ledger.
			s.logger.Warn("Failed to index generated prompts",
				zap.String("combination", item),
				zap.String("error", logging.SanitizeError(err)))
		}
	}

	out.Outcome = succeeded(item)
	out.Reason = fmt.Sprintf("%d prompts", out.Prompts)
	return out
}
