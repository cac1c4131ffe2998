package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"brandcss/cache"
	"brandcss/css"
	"brandcss/markup"
	"brandcss/misc"
)

// Engine wires the pipeline together: parse, match, guard, optionally
// optimize, serialize. One engine is safe for concurrent use.
type Engine struct {
	log     *zap.Logger
	parser  *css.Parser
	policy  Policy
	matcher *Matcher
	guard   *Guard
	opt     *Optimizer
	store   cache.Store
	flight  *singleflight.Group
}

// Options configure a new engine. The zero value gives the default policy
// with no optimizer and no result cache.
type Options struct {
	Policy   *Policy
	Optimize bool
	Passes   []string    // optimizer pass selection, empty selects all
	Store    cache.Store // nil disables result caching
	Coalesce bool        // collapse identical concurrent requests
}

func New(opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("enhance")

	pol := DefaultPolicy()
	if opts.Policy != nil {
		pol = *opts.Policy
	}
	pol = pol.normalize()

	e := &Engine{
		log:     log,
		parser:  css.NewParser(log),
		policy:  pol,
		matcher: NewMatcher(pol, log),
		guard:   NewGuard(pol, log),
		store:   opts.Store,
	}
	if opts.Optimize {
		e.opt = NewOptimizer(opts.Passes, log)
	}
	if opts.Coalesce {
		e.flight = new(singleflight.Group)
	}
	return e
}

// Process dispatches on the file extension: markup goes through the
// document path, everything else is treated as a stylesheet.
func (e *Engine) Process(ctx context.Context, req Request) (*Result, error) {
	if isMarkupPath(req.FilePath) {
		return e.EnhanceDocument(ctx, req)
	}
	return e.Enhance(ctx, req)
}

func isMarkupPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// Enhance runs a single stylesheet through the pipeline. Without a usable
// token table the source passes through byte for byte and the result is
// flagged degraded.
func (e *Engine) Enhance(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Table == nil || req.Table.Empty() {
		e.log.Warn("No usable brand pack, passing source through",
			zap.String("path", req.FilePath))
		return &Result{Code: req.Code, Degraded: true}, nil
	}

	sheet, err := e.parser.Parse([]byte(req.Code), req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", displayPath(req.FilePath), err)
	}

	cands := e.matcher.Propose(sheet, req.Table)
	kept, rejected := e.guard.Filter(req.FilePath, cands)

	res := &Result{Suppressed: rejected}
	for _, c := range kept {
		res.Changes = append(res.Changes, c.change)
		if c.change.SuggestionOnly || c.decl == nil {
			continue
		}
		c.decl.SetValue(c.value)
	}
	if e.opt != nil && !e.policy.Excluded(req.FilePath) {
		res.Changes = append(res.Changes, e.opt.Apply(sheet)...)
	}
	res.Code = sheet.String()

	e.log.Debug("Enhanced stylesheet",
		zap.String("path", req.FilePath),
		zap.Int("applied", res.Applied()),
		zap.Int("changes", len(res.Changes)),
		zap.Int("suppressed", len(res.Suppressed)))
	return res, nil
}

// EnhanceDocument runs every <style> block and style attribute of an HTML
// document through the pipeline. The change cap and the contrast guard see
// the document as one file. Markup outside touched style content is
// reproduced byte for byte; a style block whose CSS does not parse is left
// alone.
func (e *Engine) EnhanceDocument(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Table == nil || req.Table.Empty() {
		e.log.Warn("No usable brand pack, passing document through",
			zap.String("path", req.FilePath))
		return &Result{Code: req.Code, Degraded: true}, nil
	}

	doc, err := markup.Parse([]byte(req.Code))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", displayPath(req.FilePath), err)
	}

	type source struct {
		sheet  *css.Sheet
		rule   *css.Rule // inline wrapper rule, nil for style blocks
		block  *markup.StyleBlock
		inline *markup.InlineStyle
	}
	var (
		sources []*source
		cands   []*candidate
		owner   = make(map[*candidate]*source)
	)

	for _, blk := range doc.Styles() {
		sheet, err := e.parser.Parse([]byte(blk.Content()), req.FilePath)
		if err != nil {
			e.log.Warn("Skipping malformed style block",
				zap.String("path", req.FilePath),
				zap.Int("line", blk.Line()),
				zap.Error(err))
			continue
		}
		src := &source{sheet: sheet, block: blk}
		sources = append(sources, src)
		for _, c := range e.matcher.Propose(sheet, req.Table) {
			c.change.Line += blk.Line() - 1
			owner[c] = src
			cands = append(cands, c)
		}
	}

	for _, st := range doc.InlineStyles() {
		if strings.TrimSpace(st.Value()) == "" {
			continue
		}
		wrapped := st.Selector() + "{" + st.Value() + "}"
		sheet, err := e.parser.Parse([]byte(wrapped), req.FilePath)
		if err != nil || sheet.String() != wrapped ||
			len(sheet.Nodes) != 1 || sheet.Nodes[0].Rule == nil {
			e.log.Warn("Skipping unparseable style attribute",
				zap.String("path", req.FilePath),
				zap.Int("line", st.Line()))
			continue
		}
		src := &source{sheet: sheet, rule: sheet.Nodes[0].Rule, inline: st}
		sources = append(sources, src)
		for _, c := range e.matcher.Propose(sheet, req.Table) {
			c.change.Line += st.Line() - 1
			owner[c] = src
			cands = append(cands, c)
		}
	}

	docIgnored := hasIgnoreMarker(doc.Comments())
	if docIgnored {
		for _, c := range cands {
			c.ignored = true
		}
	}

	kept, rejected := e.guard.Filter(req.FilePath, cands)

	res := &Result{Suppressed: rejected}
	dirty := make(map[*source]bool)
	for _, c := range kept {
		res.Changes = append(res.Changes, c.change)
		if c.change.SuggestionOnly || c.decl == nil {
			continue
		}
		c.decl.SetValue(c.value)
		dirty[owner[c]] = true
	}

	if e.opt != nil && !docIgnored && !e.policy.Excluded(req.FilePath) {
		for _, src := range sources {
			if src.block == nil {
				continue
			}
			oc := e.opt.Apply(src.sheet)
			if len(oc) == 0 {
				continue
			}
			for i := range oc {
				oc[i].Line += src.block.Line() - 1
			}
			res.Changes = append(res.Changes, oc...)
			dirty[src] = true
		}
	}

	for _, src := range sources {
		if !dirty[src] {
			continue
		}
		if src.block != nil {
			src.block.SetContent(src.sheet.String())
		} else {
			src.inline.SetValue(src.rule.BodyString())
		}
	}
	res.Code = string(doc.Bytes())

	e.log.Debug("Enhanced document",
		zap.String("path", req.FilePath),
		zap.Int("styles", len(sources)),
		zap.Int("applied", res.Applied()),
		zap.Int("suppressed", len(res.Suppressed)))
	return res, nil
}

// EnhanceCached serves the request from the result cache when possible.
// Degraded results are never cached; with coalescing enabled, identical
// concurrent requests share one computation.
func (e *Engine) EnhanceCached(ctx context.Context, req Request) (*Result, error) {
	if e.store == nil {
		return e.Process(ctx, req)
	}

	sig := e.signature(req)
	entry, ok, err := e.store.Get(ctx, sig)
	switch {
	case err != nil:
		e.log.Warn("Cache read failed, enhancing without it", zap.Error(err))
	case ok:
		res, err := resultFromEntry(entry, sig)
		if err != nil {
			e.log.Warn("Discarding corrupt cache entry",
				zap.String("signature", sig), zap.Error(err))
		} else {
			e.log.Debug("Cache hit", zap.String("path", req.FilePath))
			return res, nil
		}
	}

	if e.flight == nil {
		return e.enhanceAndStore(ctx, req, sig)
	}
	v, err, shared := e.flight.Do(sig, func() (any, error) {
		// the result is shared with every waiter, so the first caller
		// bailing out must not cancel it for the rest
		return e.enhanceAndStore(context.WithoutCancel(ctx), req, sig)
	})
	if err != nil {
		return nil, err
	}
	res := v.(*Result)
	if shared {
		// waiters get their own shallow copy so nobody races on the struct
		cp := *res
		return &cp, nil
	}
	return res, nil
}

func (e *Engine) enhanceAndStore(ctx context.Context, req Request, sig string) (*Result, error) {
	res, err := e.Process(ctx, req)
	if err != nil {
		return nil, err
	}
	res.Signature = sig
	if res.Degraded {
		// a degraded passthrough must not shadow future real results
		return res, nil
	}

	raw, err := json.Marshal(res.Changes)
	if err == nil {
		err = e.store.Put(ctx, &cache.Entry{
			Signature:      sig,
			Code:           res.Code,
			Changes:        raw,
			EngineVersion:  misc.GetEngineVersion(),
			RulesetVersion: req.RulesetVersion,
			CreatedAt:      time.Now().UTC(),
		})
	}
	if err != nil {
		e.log.Warn("Cache write failed", zap.Error(err))
	}
	return res, nil
}

func (e *Engine) signature(req Request) string {
	id, ver := req.BrandPackID, req.BrandVersion
	if req.Table != nil {
		if id == "" {
			id = req.Table.Brand
		}
		if ver == "" {
			ver = req.Table.Version
		}
	}
	return cache.Signature(cache.SignatureInput{
		Code:           req.Code,
		FilePath:       req.FilePath,
		BrandPackID:    id,
		BrandVersion:   ver,
		EngineVersion:  misc.GetEngineVersion(),
		RulesetVersion: req.RulesetVersion,
		OverridesHash:  cache.HashOverrides(req.Overrides),
		ComponentType:  req.ComponentType,
		EnvFlags:       req.EnvFlags,
	})
}

func resultFromEntry(entry *cache.Entry, sig string) (*Result, error) {
	res := &Result{Code: entry.Code, CacheHit: true, Signature: sig}
	if len(entry.Changes) > 0 {
		if err := json.Unmarshal(entry.Changes, &res.Changes); err != nil {
			return nil, fmt.Errorf("decoding changelog: %w", err)
		}
	}
	return res, nil
}

func displayPath(path string) string {
	if path == "" {
		return "<input>"
	}
	return path
}
