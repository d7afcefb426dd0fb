// Package fonts locates the typeface used for scale-bar labels.
//
// Labels are drawn in a bold sans-serif face, "Arial" by default. The face is
// looked up among the fonts installed on the system; metric-compatible clones
// (Liberation Sans, Arimo) count as equivalents. When nothing is found the
// lookup fails with FONT_UNAVAILABLE unless the caller opted into the embedded
// Go Bold fallback.
package fonts

import (
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/matzehuels/scalebar/pkg/errors"
)

// DefaultFamily is the label typeface family.
const DefaultFamily = "Arial"

// FallbackName identifies the embedded face in logs and cache keys.
const FallbackName = "Go Bold (embedded)"

// Spec describes which face to use.
type Spec struct {
	// Family is the font family to look up (default "Arial").
	Family string `json:"family"`

	// Path forces a specific font file and skips the system lookup.
	Path string `json:"path,omitempty"`

	// AllowFallback substitutes the embedded Go Bold face when the family
	// cannot be located.
	AllowFallback bool `json:"allowFallback"`
}

// DefaultSpec returns the spec used when no preference is stored.
func DefaultSpec() Spec {
	return Spec{Family: DefaultFamily}
}

// Face is a resolved font file.
type Face struct {
	Name     string // file path, or FallbackName for the embedded face
	Data     []byte // raw TrueType data
	Fallback bool   // true when the embedded face was substituted
}

// equivalents lists metric-compatible clones accepted in place of a family.
var equivalents = map[string][]string{
	"arial": {"LiberationSans-Bold.ttf", "Arimo-Bold.ttf"},
}

// Candidates returns the bold font file names searched for family, most
// specific first.
func Candidates(family string) []string {
	if family == "" {
		family = DefaultFamily
	}
	compact := strings.ReplaceAll(family, " ", "")
	lower := strings.ToLower(compact)
	names := []string{
		family + " Bold.ttf",
		compact + "_Bold.ttf",
		compact + "-Bold.ttf",
		lower + "bd.ttf",
	}
	return append(names, equivalents[lower]...)
}

// Resolver resolves and caches font faces. It is safe for concurrent use.
type Resolver struct {
	mu    sync.Mutex
	faces map[Spec]*Face
	find  func(name string) (string, error)
}

// NewResolver creates a resolver backed by the system font directories.
func NewResolver() *Resolver {
	return &Resolver{
		faces: make(map[Spec]*Face),
		find:  findfont.Find,
	}
}

// Resolve returns the face for spec, reading it from disk on first use.
func (r *Resolver) Resolve(spec Spec) (*Face, error) {
	if spec.Family == "" {
		spec.Family = DefaultFamily
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.faces[spec]; ok {
		return f, nil
	}

	f, err := r.load(spec)
	if err != nil {
		return nil, err
	}
	r.faces[spec] = f
	return f, nil
}

func (r *Resolver) load(spec Spec) (*Face, error) {
	if spec.Path != "" {
		data, err := os.ReadFile(spec.Path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFontUnavailable, err, "read font %s", spec.Path)
		}
		return &Face{Name: spec.Path, Data: data}, nil
	}

	for _, name := range Candidates(spec.Family) {
		path, err := r.find(name)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return &Face{Name: path, Data: data}, nil
	}

	if spec.AllowFallback {
		return &Face{Name: FallbackName, Data: gobold.TTF, Fallback: true}, nil
	}
	return nil, errors.New(errors.ErrCodeFontUnavailable,
		"no bold %q font installed (set font.path or font.allowFallback)", spec.Family)
}
