package assets

// Names of the built-in assets.
const (
	// DefaultStyleName is the stylesheet inlined into standalone documents.
	DefaultStyleName = "mdpp"

	// AlertTemplateName renders error banners.
	AlertTemplateName = "alert"

	// DocumentTemplateName wraps a fragment into a standalone page.
	DocumentTemplateName = "document"
)

// Kind is an asset family. Each kind lives in the directory of its name,
// both in the embedded tree and under a custom asset path.
type Kind string

const (
	KindStyle    Kind = "styles"
	KindTemplate Kind = "templates"
	KindPlugin   Kind = "plugins"
)

// extensions lists the file extensions of a kind in lookup order.
func (k Kind) extensions() []string {
	switch k {
	case KindStyle:
		return []string{".css"}
	case KindTemplate:
		return []string{".html"}
	default:
		return []string{".json", ".yaml", ".yml"}
	}
}

// notFound returns the sentinel reported when no file of kind k matches.
func (k Kind) notFound() error {
	switch k {
	case KindStyle:
		return ErrStyleNotFound
	case KindTemplate:
		return ErrTemplateNotFound
	default:
		return ErrPluginNotFound
	}
}

func (k Kind) singular() string {
	return string(k[:len(k)-1])
}
