// Package dest interprets free-text call routing targets: fixed system
// actions matched by literal patterns, then module references matched by the
// registry's routing-regex table. The engine is stateless apart from the
// read-only registry and is safe for concurrent use.
package dest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pbxtools/pbxdoc/core/model"
	"github.com/pbxtools/pbxdoc/core/registry"
)

// Engine resolves routing-target strings to rendered text. Matchers are
// evaluated top-to-bottom; the first match wins, so declaration order is
// load-bearing.
type Engine struct {
	specials []special
	patterns []registry.DestPattern
}

type special struct {
	re     *regexp.Regexp
	handle func(ctx context.Context, pc *model.Context, captured string) (string, error)
}

// New builds an engine over the registry's routing-regex table.
func New(reg *registry.Registry) *Engine {
	e := &Engine{patterns: reg.DestPatterns()}
	e.specials = []special{
		{regexp.MustCompile(`app-blackhole,([a-z]+)`), blackhole},
		{regexp.MustCompile(`app-pbdirectory`), func(context.Context, *model.Context, string) (string, error) {
			return "Phonebook directory", nil
		}},
		{regexp.MustCompile(`(?:^|,)vm([busi][0-9]+)`), voicemail},
		{regexp.MustCompile(`ext-featurecodes,(\**[0-9]+)`), featureCode},
	}
	return e
}

// Resolve interprets one routing target. Unrecognized non-empty strings come
// back as a visible error marker rather than an error: one bad destination
// must not stop the rest of the configuration from being documented.
func (e *Engine) Resolve(ctx context.Context, pc *model.Context, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	for _, sp := range e.specials {
		m := sp.re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		captured := ""
		if len(m) > 1 {
			captured = m[1]
		}
		return sp.handle(ctx, pc, captured)
	}

	for _, p := range e.patterns {
		m := p.Regex.FindStringSubmatch(raw)
		if m == nil || len(m) < 2 {
			continue
		}
		col := pc.Collection(p.Module)
		if col == nil {
			return unknown(raw), nil
		}
		rec, err := col.Get(ctx, m[1])
		if err != nil || rec == nil {
			return unknown(raw), nil
		}
		label, err := rec.Label(ctx)
		if err != nil {
			return "", err
		}
		return model.Link(rec.UID(), rec.Schema().ItemName+": "+label), nil
	}

	return unknown(raw), nil
}

func unknown(raw string) string {
	return model.ErrorMarker(fmt.Sprintf("ERROR: Unknown destination '%s'", raw))
}

var blackholeLabels = map[string]string{
	"hangup":      "Hangup",
	"congestion":  "Congestion",
	"busy":        "Busy",
	"zapateller":  "Play SIT tone (Zapateller)",
	"musiconhold": "Put caller on hold forever",
	"ring":        "Play ringtones to caller until they hang up",
}

func blackhole(_ context.Context, _ *model.Context, captured string) (string, error) {
	if label, ok := blackholeLabels[captured]; ok {
		return "Terminate call: " + label, nil
	}
	return "Terminate call", nil
}

var voicemailModes = map[byte]string{
	'b': "busy",
	'u': "unavail",
	's': "no-msg",
	'i': "instruction-only",
}

// voicemail handles targets of the form vm<mode><extension>: the flag
// character selects the greeting mode, the remaining digits are the target
// extension.
func voicemail(ctx context.Context, pc *model.Context, captured string) (string, error) {
	mode := voicemailModes[captured[0]]
	ext, err := strconv.Atoi(captured[1:])
	if err != nil {
		return unknown(captured), nil
	}

	label := "None"
	if col := pc.Collection("Extension"); col != nil {
		rec, err := col.Get(ctx, ext)
		if err == nil && rec != nil {
			if label, err = rec.Label(ctx); err != nil {
				return "", err
			}
		}
	}
	return fmt.Sprintf("Voicemail: %s (%s)", label, mode), nil
}

// featureCode resolves a dialed code against the feature-code table: custom
// codes take precedence over defaults. A code matching neither is a hard
// error, not a degraded rendering.
func featureCode(ctx context.Context, pc *model.Context, captured string) (string, error) {
	col := pc.Collection("FeatureCode")
	if col == nil {
		return "", fmt.Errorf("feature code %q: FeatureCode module not registered", captured)
	}
	recs, err := col.Filter(ctx, model.Where("customcode", captured))
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		recs, err = col.Filter(ctx, model.Where("defaultcode", captured))
		if err != nil {
			return "", err
		}
	}
	if len(recs) == 0 {
		return "", fmt.Errorf("feature code %q: no matching custom or default code", captured)
	}
	desc, err := recs[0].Field("description").Render(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Feature code: <%s> %s", captured, desc), nil
}
