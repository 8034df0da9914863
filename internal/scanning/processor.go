package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/harina-project/harina/internal/category"
)

// Processor runs the receipt pipeline: image validation, prompt assembly,
// tiered model completion, response repair and output conversion. It
// holds no per-request state and may be shared across goroutines.
type Processor struct {
	categories CategorySource
	lookupKey  KeyLookup
	gemini     Completer
	compat     Completer
}

// NewProcessor creates a Processor with the default completers and
// environment-backed credential lookup. categories may be nil; the
// bundled static taxonomy is used then.
func NewProcessor(categories CategorySource) *Processor {
	return NewProcessorWithDeps(categories, os.Getenv, Gemini{}, NewOpenAICompat(""))
}

// NewProcessorWithDeps creates a Processor with custom dependencies for
// testing.
func NewProcessorWithDeps(categories CategorySource, lookup KeyLookup, gemini, compat Completer) *Processor {
	return &Processor{
		categories: categories,
		lookupKey:  lookup,
		gemini:     gemini,
		compat:     compat,
	}
}

// Process scans one receipt and returns the formatted result together
// with the credential-tier diagnostics.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = FormatXML
	}
	if format != FormatXML && format != FormatCSV {
		return nil, fmt.Errorf("%w: unsupported output format %q", ErrValidation, req.Format)
	}

	imagePNG, err := normalizePNG(req.Image, req.ContentType)
	if err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(req.Instructions, p.categorySnapshot(ctx))
	if err != nil {
		return nil, err
	}

	completer := p.gemini
	if !isGeminiModel(req.Model) {
		completer = p.compat
	}
	tiers := rankTiers(req.Model, p.lookupKey)
	text, usedFallback, keyLabel, err := attemptCompletion(ctx, completer, tiers, CompletionRequest{
		Model:    req.Model,
		Prompt:   prompt,
		ImagePNG: imagePNG,
	})
	if err != nil {
		return nil, err
	}

	fragment, err := ExtractXML(text)
	if err != nil {
		return nil, err
	}
	formatted, err := Normalize(fragment)
	if err != nil {
		return nil, err
	}

	data := formatted
	if format == FormatCSV {
		data, err = ConvertXMLToCSV(formatted)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("receipt processed",
		"model", req.Model, "format", format,
		"key", keyLabel, "fallback", usedFallback)

	return &Result{
		Data:         data,
		Format:       format,
		UsedFallback: usedFallback,
		KeyLabel:     keyLabel,
	}, nil
}

// categorySnapshot fetches the taxonomy text for the prompt. A missing or
// empty snapshot is never an error; the embedded static taxonomy steps
// in.
func (p *Processor) categorySnapshot(ctx context.Context) string {
	if p.categories != nil {
		if snapshot := p.categories.Snapshot(ctx); snapshot != "" {
			return snapshot
		}
		slog.Warn("category snapshot unavailable, using bundled taxonomy")
	}
	return category.Static()
}
