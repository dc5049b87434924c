package text

import (
	"context"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/inkstream/pdftext/contentstream"
	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/font"
	"github.com/inkstream/pdftext/graphicsstate"
	"github.com/inkstream/pdftext/logger"
	"github.com/inkstream/pdftext/model"
)

// Extractor executes a content stream's text operators against a graphics
// state and emits positioned spans. One extractor serves one page; it is
// not safe for concurrent use, but independent extractors over a shared
// reader are.
type Extractor struct {
	gs      *graphicsstate.Stack
	resolve font.Resolve

	// resStack holds the active resource dictionaries, innermost last;
	// form XObjects push their own resources while executing.
	resStack []core.Dict
	fonts    map[fontKey]*font.Font
	curFont  *font.Font

	inText    bool
	strict    bool
	mcStack   []markedContent
	spans     []Span
	pend      *pending
	xobjDepth int
}

type fontKey struct {
	depth int
	name  string
}

type markedContent struct {
	mcid       int
	actualText string
	hasActual  bool
}

// pending accumulates the span under construction.
type pending struct {
	text     strings.Builder
	fontName string
	fontSize float64 // device units
	flags    font.StyleFlags
	bbox     model.Rect
	end      model.Point // device position where the next glyph must start
	mcid     int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStrict makes state errors (Q underflow, nested BT) fatal instead of
// logged.
func WithStrict() Option {
	return func(e *Extractor) {
		e.strict = true
	}
}

// NewExtractor creates an extractor over the given page resources.
func NewExtractor(resources core.Dict, resolve font.Resolve, opts ...Option) *Extractor {
	e := &Extractor{
		gs:      graphicsstate.NewStack(),
		resolve: resolve,
		fonts:   make(map[fontKey]*font.Font),
	}
	if resources == nil {
		resources = core.Dict{}
	}
	e.resStack = []core.Dict{resources}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the content stream and returns the spans in stream order.
// Cancellation is cooperative: ctx is checked between operator batches.
func (e *Extractor) Extract(ctx context.Context, content []byte) ([]Span, error) {
	ops, err := contentstream.Parse(content)
	if err != nil {
		return nil, err
	}
	if err := e.execute(ctx, ops); err != nil {
		return nil, err
	}
	e.flush()
	return e.spans, nil
}

const cancelCheckInterval = 64

func (e *Extractor) execute(ctx context.Context, ops []contentstream.Operation) error {
	for i, op := range ops {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := e.processOp(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) processOp(ctx context.Context, op contentstream.Operation) error {
	st := e.gs.Current()

	switch op.Operator {
	// Graphics state.
	case "q":
		e.gs.Save()
	case "Q":
		if err := e.gs.Restore(); err != nil {
			if e.strict {
				return err
			}
			logger.Debug("text: Q on empty state stack")
		}
		e.refreshFont()
	case "cm":
		if m, ok := matrixOperands(op); ok {
			st.Concat(m)
		}

	// Text object.
	case "BT":
		if e.inText && e.strict {
			return errNestedBT
		}
		e.inText = true
		st.BeginText()
	case "ET":
		e.inText = false
		e.flush()

	// Text state.
	case "Tc":
		if v, ok := op.Float(0); ok {
			st.Text.CharSpace = v
		}
	case "Tw":
		if v, ok := op.Float(0); ok {
			st.Text.WordSpace = v
		}
	case "Tz":
		if v, ok := op.Float(0); ok {
			st.Text.Horizontal = v
		}
	case "TL":
		if v, ok := op.Float(0); ok {
			st.Text.Leading = v
		}
	case "Tf":
		name, ok1 := op.Name(0)
		size, ok2 := op.Float(1)
		if ok1 && ok2 {
			st.Text.FontName = string(name)
			st.Text.FontSize = size
			e.curFont = e.lookupFont(string(name))
		}
	case "Tr":
		if v, ok := op.Float(0); ok {
			st.Text.RenderMode = int(v)
		}
	case "Ts":
		if v, ok := op.Float(0); ok {
			st.Text.Rise = v
		}

	// Text positioning.
	case "Td":
		tx, ok1 := op.Float(0)
		ty, ok2 := op.Float(1)
		if ok1 && ok2 {
			st.NextLine(tx, ty)
		}
	case "TD":
		tx, ok1 := op.Float(0)
		ty, ok2 := op.Float(1)
		if ok1 && ok2 {
			st.Text.Leading = -ty
			st.NextLine(tx, ty)
		}
	case "Tm":
		if m, ok := matrixOperands(op); ok {
			st.SetTextMatrix(m)
		}
	case "T*":
		st.NextLineLeading()

	// Text showing.
	case "Tj":
		if s, ok := op.Text(0); ok {
			e.showText([]byte(s))
		}
	case "'":
		st.NextLineLeading()
		if s, ok := op.Text(0); ok {
			e.showText([]byte(s))
		}
	case "\"":
		aw, ok1 := op.Float(0)
		ac, ok2 := op.Float(1)
		if ok1 && ok2 {
			st.Text.WordSpace = aw
			st.Text.CharSpace = ac
		}
		st.NextLineLeading()
		if s, ok := op.Text(2); ok {
			e.showText([]byte(s))
		}
	case "TJ":
		if len(op.Operands) == 1 {
			if arr, ok := op.Operands[0].(core.Array); ok {
				e.showTextArray(arr)
			}
		}

	// Marked content.
	case "BMC":
		e.pushMarkedContent(core.Dict{})
	case "BDC":
		props := e.markedContentProps(op)
		e.pushMarkedContent(props)
	case "EMC":
		e.popMarkedContent()

	// XObjects.
	case "Do":
		if name, ok := op.Name(0); ok {
			if err := e.invokeXObject(ctx, string(name)); err != nil {
				return err
			}
		}
	}
	return nil
}

var errNestedBT = &stateError{"BT inside text object"}

type stateError struct{ msg string }

func (e *stateError) Error() string { return e.msg }

func matrixOperands(op contentstream.Operation) (model.Matrix, bool) {
	var m model.Matrix
	if len(op.Operands) < 6 {
		return m, false
	}
	for i := 0; i < 6; i++ {
		v, ok := op.Float(i)
		if !ok {
			return m, false
		}
		m[i] = v
	}
	return m, true
}

// lookupFont loads a font by resource name, searching the resource stack
// innermost first.
func (e *Extractor) lookupFont(name string) *font.Font {
	for depth := len(e.resStack) - 1; depth >= 0; depth-- {
		key := fontKey{depth: depth, name: name}
		if f, ok := e.fonts[key]; ok {
			return f
		}
		fontsDict, ok := e.resourceDict(e.resStack[depth], "Font")
		if !ok {
			continue
		}
		obj := fontsDict.Get(core.Name(name))
		if obj == nil {
			continue
		}
		dict, ok := e.derefDict(obj)
		if !ok {
			continue
		}
		f, err := font.Load(name, dict, e.resolve)
		if err != nil {
			logger.Debug("text: font failed to load", "name", name, "err", err)
			continue
		}
		e.fonts[key] = f
		return f
	}
	logger.Debug("text: font not found in resources", "name", name)
	return nil
}

func (e *Extractor) resourceDict(res core.Dict, key core.Name) (core.Dict, bool) {
	obj := res.Get(key)
	if obj == nil {
		return nil, false
	}
	return e.derefDict(obj)
}

func (e *Extractor) derefDict(obj core.Object) (core.Dict, bool) {
	if ref, ok := obj.(core.IndirectRef); ok {
		if e.resolve == nil {
			return nil, false
		}
		resolved, err := e.resolve(ref)
		if err != nil {
			return nil, false
		}
		obj = resolved
	}
	dict, ok := obj.(core.Dict)
	return dict, ok
}

// showText decodes and emits one show string under the current state.
func (e *Extractor) showText(raw []byte) {
	if e.curFont == nil {
		// A show before Tf has nothing to decode with; skip but keep the
		// position model consistent by not advancing.
		logger.Debug("text: show string without a current font")
		return
	}
	st := e.gs.Current()
	size := st.Text.FontSize
	hscale := st.Text.Horizontal / 100

	for _, g := range e.curFont.Decode(raw) {
		rm := st.RenderMatrix()
		origin := rm.Apply(model.Point{})

		// Glyph displacement along the baseline in text-space units.
		adv := (g.Width/1000*size + st.Text.CharSpace)
		if g.IsSpace {
			adv += st.Text.WordSpace
		}
		adv *= hscale

		e.appendGlyph(g.Text, origin, rm, adv, size)
		st.Advance(adv, 0)
	}
}

// showTextArray handles TJ: strings interleaved with offsets in thousandths
// of an em, subtracted from the displacement.
func (e *Extractor) showTextArray(arr core.Array) {
	st := e.gs.Current()
	for _, item := range arr {
		switch v := item.(type) {
		case core.String:
			e.showText([]byte(v))
		case core.Int, core.Real:
			n, _ := core.ToFloat(v)
			adv := -n / 1000 * st.Text.FontSize * st.Text.Horizontal / 100
			st.Advance(adv, 0)
		}
	}
}

// appendGlyph adds one glyph to the pending span, starting a new span when
// the font, size, position continuity or marked-content context changed.
func (e *Extractor) appendGlyph(text string, origin model.Point, rm model.Matrix, adv, size float64) {
	deviceSize := size * rm.ScaleFactor()

	fontName := ""
	var flags font.StyleFlags
	if e.curFont != nil {
		fontName = e.curFont.BaseFont
		if fontName == "" {
			fontName = e.curFont.Name
		}
		flags = e.curFont.Style()
	}

	end := rm.Apply(model.Point{X: adv})
	top := rm.Apply(model.Point{X: adv, Y: size})
	glyphBox := model.RectFromPoints(origin, top)

	mcid := e.currentMCID()

	if e.pend != nil {
		gap := math.Hypot(origin.X-e.pend.end.X, origin.Y-e.pend.end.Y)
		if e.pend.fontName != fontName ||
			math.Abs(e.pend.fontSize-deviceSize) > 0.01 ||
			e.pend.mcid != mcid ||
			gap > deviceSize {
			e.flush()
		}
	}
	if e.pend == nil {
		e.pend = &pending{
			fontName: fontName,
			fontSize: deviceSize,
			flags:    flags,
			bbox:     glyphBox,
			mcid:     mcid,
		}
	} else {
		e.pend.bbox = e.pend.bbox.Union(glyphBox)
	}
	if !e.suppressed() {
		e.pend.text.WriteString(text)
	}
	e.pend.end = end
}

// flush emits the pending span if it holds any text.
func (e *Extractor) flush() {
	if e.pend == nil {
		return
	}
	text := e.pend.text.String()
	if text != "" {
		e.spans = append(e.spans, Span{
			Text:     text,
			FontName: e.pend.fontName,
			FontSize: e.pend.fontSize,
			Bold:     e.pend.flags.Bold,
			Italic:   e.pend.flags.Italic,
			Mono:     e.pend.flags.Mono,
			BBox:     e.pend.bbox,
			MCID:     e.pend.mcid,
		})
	}
	e.pend = nil
}

// markedContentProps extracts the BDC property list, resolving named
// references through the /Properties resource dictionary.
func (e *Extractor) markedContentProps(op contentstream.Operation) core.Dict {
	if len(op.Operands) < 2 {
		return core.Dict{}
	}
	switch v := op.Operands[1].(type) {
	case core.Dict:
		return v
	case core.Name:
		for depth := len(e.resStack) - 1; depth >= 0; depth-- {
			if propsRes, ok := e.resourceDict(e.resStack[depth], "Properties"); ok {
				if d, ok := e.derefDict(propsRes.Get(v)); ok {
					return d
				}
			}
		}
	}
	return core.Dict{}
}

func (e *Extractor) pushMarkedContent(props core.Dict) {
	mc := markedContent{mcid: e.currentMCID()}
	if id, ok := props.Int("MCID"); ok {
		mc.mcid = int(id)
	}
	if at, ok := props.Text("ActualText"); ok {
		mc.actualText = decodeTextString(string(at))
		mc.hasActual = true
		e.flush()
	}
	if e.pend != nil && mc.mcid != e.pend.mcid {
		e.flush()
	}
	e.mcStack = append(e.mcStack, mc)
}

func (e *Extractor) popMarkedContent() {
	if len(e.mcStack) == 0 {
		return
	}
	mc := e.mcStack[len(e.mcStack)-1]
	e.mcStack = e.mcStack[:len(e.mcStack)-1]

	if mc.hasActual {
		// The replacement text stands in for everything shown inside the
		// block; the pending bbox covers the suppressed glyphs.
		if e.pend != nil {
			e.pend.text.Reset()
			e.pend.text.WriteString(mc.actualText)
			e.flush()
		} else if mc.actualText != "" {
			st := e.gs.Current()
			origin := st.RenderMatrix().Apply(model.Point{})
			e.spans = append(e.spans, Span{
				Text:     mc.actualText,
				FontSize: st.Text.FontSize,
				BBox:     model.Rect{X0: origin.X, Y0: origin.Y, X1: origin.X, Y1: origin.Y},
				MCID:     mc.mcid,
			})
		}
		return
	}
	if e.pend != nil && e.pend.mcid != e.currentMCID() {
		e.flush()
	}
}

// currentMCID returns the innermost MCID, or -1.
func (e *Extractor) currentMCID() int {
	if len(e.mcStack) == 0 {
		return -1
	}
	return e.mcStack[len(e.mcStack)-1].mcid
}

// suppressed reports whether glyph text is being replaced by ActualText.
func (e *Extractor) suppressed() bool {
	for _, mc := range e.mcStack {
		if mc.hasActual {
			return true
		}
	}
	return false
}

const maxXObjectDepth = 8

// invokeXObject executes a /Subtype /Form XObject: its content runs under a
// saved state with the form matrix prepended and the form's resources
// pushed. Image XObjects are ignored.
func (e *Extractor) invokeXObject(ctx context.Context, name string) error {
	if e.xobjDepth >= maxXObjectDepth {
		logger.Debug("text: XObject recursion limit reached", "name", name)
		return nil
	}
	var stream *core.Stream
	for depth := len(e.resStack) - 1; depth >= 0; depth-- {
		xobjs, ok := e.resourceDict(e.resStack[depth], "XObject")
		if !ok {
			continue
		}
		obj := xobjs.Get(core.Name(name))
		if obj == nil {
			continue
		}
		if ref, ok := obj.(core.IndirectRef); ok && e.resolve != nil {
			if resolved, err := e.resolve(ref); err == nil {
				obj = resolved
			}
		}
		if s, ok := obj.(*core.Stream); ok {
			stream = s
		}
		break
	}
	if stream == nil {
		return nil
	}
	if subtype, _ := stream.Dict.Name("Subtype"); subtype != "Form" {
		return nil
	}

	content, err := stream.Decode()
	if err != nil {
		logger.Debug("text: form XObject failed to decode", "name", name, "err", err)
		return nil
	}
	ops, err := contentstream.Parse(content)
	if err != nil {
		return nil
	}

	e.gs.Save()
	if arr, ok := stream.Dict.Array("Matrix"); ok && len(arr) == 6 {
		var m model.Matrix
		valid := true
		for i := 0; i < 6; i++ {
			v, ok := arr.Float(i)
			if !ok {
				valid = false
				break
			}
			m[i] = v
		}
		if valid {
			e.gs.Current().Concat(m)
		}
	}

	pushedRes := false
	if res, ok := e.resourceDict(stream.Dict, "Resources"); ok {
		e.resStack = append(e.resStack, res)
		pushedRes = true
	}

	e.xobjDepth++
	execErr := e.execute(ctx, ops)
	e.xobjDepth--

	if pushedRes {
		e.resStack = e.resStack[:len(e.resStack)-1]
		// Fonts cached for the form's resource level would alias a later
		// form's identically named fonts.
		for key := range e.fonts {
			if key.depth >= len(e.resStack) {
				delete(e.fonts, key)
			}
		}
	}
	if err := e.gs.Restore(); err != nil {
		logger.Debug("text: form XObject unbalanced state stack")
	}
	e.refreshFont()
	return execErr
}

// refreshFont re-resolves the current font after a state restore, since the
// restored text state may name a different font than the one last set.
func (e *Extractor) refreshFont() {
	name := e.gs.Current().Text.FontName
	if name == "" {
		e.curFont = nil
		return
	}
	e.curFont = e.lookupFont(name)
}

// decodeTextString interprets a PDF text string: UTF-16BE with a BOM, or
// byte-per-rune otherwise.
func decodeTextString(s string) string {
	if len(s) >= 2 && s[0] == 0xfe && s[1] == 0xff {
		units := make([]uint16, 0, len(s)/2)
		for i := 2; i+1 < len(s); i += 2 {
			units = append(units, uint16(s[i])<<8|uint16(s[i+1]))
		}
		return string(utf16.Decode(units))
	}
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, rune(s[i]))
	}
	return string(out)
}
