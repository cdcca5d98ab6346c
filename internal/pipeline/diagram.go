package pipeline

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrDiagramEncoding indicates a diagram source could not be encoded.
var ErrDiagramEncoding = errors.New("diagram encoding failed")

// DefaultKrokiURL is the public Kroki instance.
const DefaultKrokiURL = "https://kroki.io"

// krokiTypes maps fenced code languages to Kroki diagram types.
var krokiTypes = map[string]string{
	"plantuml":    "plantuml",
	"puml":        "plantuml",
	"c4plantuml":  "c4plantuml",
	"graphviz":    "graphviz",
	"dot":         "graphviz",
	"ditaa":       "ditaa",
	"blockdiag":   "blockdiag",
	"seqdiag":     "seqdiag",
	"actdiag":     "actdiag",
	"nwdiag":      "nwdiag",
	"packetdiag":  "packetdiag",
	"rackdiag":    "rackdiag",
	"erd":         "erd",
	"nomnoml":     "nomnoml",
	"pikchr":      "pikchr",
	"structurizr": "structurizr",
	"svgbob":      "svgbob",
	"vega":        "vega",
	"vegalite":    "vegalite",
	"wavedrom":    "wavedrom",
	"bpmn":        "bpmn",
	"bytefield":   "bytefield",
	"excalidraw":  "excalidraw",
	"d2":          "d2",
	"tikz":        "tikz",
	"dbml":        "dbml",
}

var KindDiagram = ast.NewNodeKind("Diagram")

// Diagram replaces a fenced code block holding diagram source.
type Diagram struct {
	ast.BaseBlock
	Language    string // fence language as written
	DiagramType string // "mermaid" or a Kroki diagram type
	Source      []byte
}

func (n *Diagram) Kind() ast.NodeKind { return KindDiagram }

func (n *Diagram) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"DiagramType": n.DiagramType}, nil)
}

// KrokiURL builds the GET URL rendering source as SVG:
// {base}/{type}/svg/{base64url(zlib(source))}. Nothing is fetched.
func KrokiURL(base, diagramType string, source []byte) (string, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagramEncoding, err)
	}
	if _, err := zw.Write(source); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagramEncoding, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagramEncoding, err)
	}
	encoded := base64.URLEncoding.EncodeToString(buf.Bytes())
	return strings.TrimRight(base, "/") + "/" + diagramType + "/svg/" + encoded, nil
}

// DecodeKroki reverses the payload encoding of KrokiURL.
func DecodeKroki(payload string) ([]byte, error) {
	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramEncoding, err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramEncoding, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramEncoding, err)
	}
	return out, nil
}

// NewDiagrams renders mermaid fences as <pre class="mermaid"> and, when
// krokiURL is set, Kroki languages as <img> elements.
func NewDiagrams(krokiURL string) goldmark.Extender {
	return &diagramExtension{krokiURL: krokiURL}
}

// diagramPriority runs diagram replacement after directive resolution.
const diagramPriority = 200

type diagramExtension struct {
	krokiURL string
}

func (e *diagramExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(&diagramTransformer{kroki: e.krokiURL != ""}, diagramPriority)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(&diagramRenderer{krokiURL: e.krokiURL}, 500)))
}

type diagramTransformer struct {
	kroki bool
}

func (t *diagramTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fcb, ok := n.(*ast.FencedCodeBlock); ok && entering {
			blocks = append(blocks, fcb)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, fcb := range blocks {
		lang := strings.ToLower(string(fcb.Language(source)))
		diagramType := ""
		switch {
		case lang == "mermaid":
			diagramType = "mermaid"
		case t.kroki:
			diagramType = krokiTypes[lang]
		}
		if diagramType == "" {
			continue
		}

		var src bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			src.Write(seg.Value(source))
		}
		d := &Diagram{Language: lang, DiagramType: diagramType, Source: src.Bytes()}
		d.SetBlankPreviousLines(fcb.HasBlankPreviousLines())
		fcb.Parent().ReplaceChild(fcb.Parent(), fcb, d)
	}
}

type diagramRenderer struct {
	krokiURL string
}

func (r *diagramRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, r.render)
}

func (r *diagramRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	d := node.(*Diagram)
	if d.DiagramType == "mermaid" {
		_, _ = w.WriteString(`<pre class="mermaid">`)
		_, _ = w.Write(util.EscapeHTML(d.Source))
		_, _ = w.WriteString("</pre>\n")
		return ast.WalkSkipChildren, nil
	}

	src, err := KrokiURL(r.krokiURL, d.DiagramType, d.Source)
	if err != nil {
		return ast.WalkStop, err
	}
	fmt.Fprintf(w, `<img class="diagram diagram-%s" src="%s" alt="%s diagram" />`+"\n",
		d.DiagramType, util.EscapeHTML([]byte(src)), d.DiagramType)
	return ast.WalkSkipChildren, nil
}
