package csp

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/conneroisu/sitecsp/internal/errors"
	"github.com/conneroisu/sitecsp/internal/logging"
)

// Generator builds a Content-Security-Policy for HTML documents and embeds
// it in each document as a single meta element.
//
// A Generator only holds configuration. Every call works on its own
// Directives and document, so one Generator can serve many goroutines as
// long as they do not share a document.
type Generator struct {
	cfg    Config
	logger logging.Logger
	hasher Hasher
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger that receives debug lines when Config.Debug is on.
func WithLogger(logger logging.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithHasher replaces the default SHA-256 hasher, typically with a
// CachedHasher shared across a site build.
func WithHasher(hasher Hasher) Option {
	return func(g *Generator) {
		if hasher != nil {
			g.hasher = hasher
		}
	}
}

// NewGenerator creates a Generator for cfg.
func NewGenerator(cfg Config, opts ...Option) *Generator {
	g := &Generator{
		cfg:    cfg.Resolved(),
		logger: logging.NewNopLogger(),
		hasher: SHA256Hasher{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.WithComponent("csp")
	return g
}

// Config returns the resolved configuration.
func (g *Generator) Config() Config {
	return g.cfg.Resolved()
}

// Result is the outcome of processing one document.
type Result struct {
	HTML   string
	Policy *Directives
}

// Run parses src, embeds the generated policy and returns the document.
func (g *Generator) Run(ctx context.Context, src string) (string, error) {
	res, err := g.Process(ctx, strings.NewReader(src))
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}

// RunReader is Run for a reader.
func (g *Generator) RunReader(ctx context.Context, r io.Reader) (string, error) {
	res, err := g.Process(ctx, r)
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}

// Process is RunReader that also returns the final Directives.
func (g *Generator) Process(ctx context.Context, r io.Reader) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.WrapParse(err, errors.ErrCodeParseFailed, "failed to parse HTML document")
	}

	policy := g.Apply(ctx, doc)

	out, err := doc.Html()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeRenderFailed, "failed to render HTML document", err)
	}
	return &Result{HTML: out, Policy: policy}, nil
}

// Apply rewrites doc in place and returns the policy written into it.
//
// Steps run in a fixed order: read and drop any existing policy, inject
// 'self' defaults, turn style attributes into <style> blocks, scan linked
// styles, images, inline styles, scripts and frames, then write the
// serialized policy into a fresh meta element.
func (g *Generator) Apply(ctx context.Context, doc *goquery.Document) *Directives {
	if ctx == nil {
		ctx = context.Background()
	}
	r := &run{
		ctx:    ctx,
		cfg:    g.cfg,
		logger: g.logger,
		hasher: g.hasher,
		doc:    doc,
		policy: NewPolicy(),
	}

	r.parseExistingPolicy()
	r.injectDefaults()
	r.normalizeInlineStyles()

	r.findLinkedStyles()
	r.findImages()
	r.findInlineStyles()
	r.findScripts()
	r.findFrames()

	r.writePolicy()
	return r.policy
}

// run is the state of one Apply call.
type run struct {
	ctx    context.Context
	cfg    Config
	logger logging.Logger
	hasher Hasher
	doc    *goquery.Document
	policy *Directives

	// style anchor id generation
	seq int
	ids map[string]struct{}
}

func (r *run) debug(msg string, fields ...interface{}) {
	if r.cfg.Debug {
		r.logger.Debug(r.ctx, msg, fields...)
	}
}

// parseExistingPolicy merges the content of the first CSP meta element into
// the policy, then removes every CSP meta element from the document.
func (r *run) parseExistingPolicy() {
	metas := findPolicyMetas(r.doc)
	if metas.Length() == 0 {
		return
	}

	if content, ok := metas.First().Attr("content"); ok {
		ParsePolicy(content, r.policy)
	}

	// metas is a snapshot, so removal cannot disturb the lookup.
	count := metas.Length()
	metas.Remove()
	r.debug("Removed existing content security policy", "elements", count)
}

func (r *run) injectDefaults() {
	for _, name := range r.policy.Names() {
		if r.cfg.injectsSelf(name) {
			r.policy.Append(name, SourceSelf)
		}
	}
}

func (r *run) writePolicy() {
	content := Serialize(r.policy, r.cfg)

	target, where := insertionPoint(r.doc)
	if target == nil {
		r.debug("Generated content security policy but found no-where to insert it.")
		return
	}

	target.PrependNodes(newPolicyMeta(content))
	r.debug("Generated content security policy, inserted in " + where + ".")
}
