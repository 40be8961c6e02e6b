package app

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
)

// FallbackPattern replaces the naming pattern when it references {event}
// but no event was resolved.
const FallbackPattern = "{date}_{seq:03d}"

var (
	folderTokens   = map[string]bool{"year": true, "month": true, "day": true}
	filenameTokens = map[string]bool{"date": true, "time": true, "event": true, "seq": true, "camera": true}
)

type templatePart struct {
	literal string
	token   string
	width   int
}

// Template is a parsed "{token}" / "{token:spec}" string.
type Template struct {
	raw   string
	parts []templatePart
}

// ParseTemplate accepts only the given tokens. A width spec ("03d" or "3")
// is allowed on {seq} only.
func ParseTemplate(raw string, allowed map[string]bool) (Template, error) {
	t := Template{raw: raw}
	rest := raw
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			t.parts = append(t.parts, templatePart{literal: rest})
			break
		}
		if open > 0 {
			t.parts = append(t.parts, templatePart{literal: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return Template{}, fmt.Errorf("template %q: unclosed {", raw)
		}
		body := rest[open+1 : open+end]
		rest = rest[open+end+1:]

		name, spec, hasSpec := strings.Cut(body, ":")
		if !allowed[name] {
			return Template{}, fmt.Errorf("template %q: unknown token {%s}", raw, body)
		}
		part := templatePart{token: name}
		if hasSpec {
			if name != "seq" {
				return Template{}, fmt.Errorf("template %q: {%s} takes no format", raw, name)
			}
			width, err := strconv.Atoi(strings.TrimSuffix(spec, "d"))
			if err != nil || width < 0 || width > 9 {
				return Template{}, fmt.Errorf("template %q: bad width in {%s}", raw, body)
			}
			part.width = width
		}
		t.parts = append(t.parts, part)
	}
	return t, nil
}

func (t Template) String() string {
	return t.raw
}

func (t Template) Has(token string) bool {
	for _, p := range t.parts {
		if p.token == token {
			return true
		}
	}
	return false
}

// Render substitutes every token. A token that renders empty takes one
// adjacent separator with it so no "__" or leading "_" is left behind.
func (t Template) Render(value func(token string, width int) string) string {
	var b strings.Builder
	dropLeadingSep := false
	for _, p := range t.parts {
		if p.token == "" {
			lit := p.literal
			if dropLeadingSep && lit != "" && isSeparator(lit[0]) {
				lit = lit[1:]
			}
			if lit != "" {
				dropLeadingSep = false
			}
			b.WriteString(lit)
			continue
		}
		v := value(p.token, p.width)
		if v != "" {
			dropLeadingSep = false
			b.WriteString(v)
			continue
		}
		if s := b.String(); s != "" && isSeparator(s[len(s)-1]) {
			b.Reset()
			b.WriteString(s[:len(s)-1])
		} else {
			dropLeadingSep = true
		}
	}
	return b.String()
}

func isSeparator(c byte) bool {
	return c == '_' || c == '-' || c == '.' || c == ' '
}

// Sanitize folds diacritics and reduces s to [A-Za-z0-9._-]. Runs of other
// characters become a single underscore; outer underscores are trimmed.
func Sanitize(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}
	var b strings.Builder
	inRun := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.') {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('_')
			inRun = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// Deriver computes target directories and file names for shot members.
type Deriver struct {
	libraryRoot string
	folder      Template
	pattern     Template
	fallback    Template
	split       bool
	event       string
}

func NewDeriver(cfg config.EffectiveConfig) (Deriver, error) {
	folder, err := ParseTemplate(cfg.FolderStructure, folderTokens)
	if err != nil {
		return Deriver{}, fmt.Errorf("folder structure: %w", err)
	}
	pattern, err := ParseTemplate(cfg.NamingPattern, filenameTokens)
	if err != nil {
		return Deriver{}, fmt.Errorf("naming pattern: %w", err)
	}
	fallback, err := ParseTemplate(FallbackPattern, filenameTokens)
	if err != nil {
		return Deriver{}, err
	}
	return Deriver{
		libraryRoot: cfg.LibraryRoot,
		folder:      folder,
		pattern:     pattern,
		fallback:    fallback,
		split:       cfg.SplitByType,
		event:       Sanitize(cfg.Event),
	}, nil
}

// NamingContext resolves the template variables shared by every member of
// the shot. The camera is taken from the earliest member that has one.
func (d Deriver) NamingContext(shot domain.Shot) domain.NamingContext {
	camera := ""
	members := shot.Members()
	earliest := shot.Earliest()
	if earliest.Camera != "" {
		camera = earliest.Camera
	} else {
		for _, m := range members {
			if m.Camera != "" {
				camera = m.Camera
				break
			}
		}
	}
	return domain.NamingContext{
		CapturedAt: shot.CapturedAt(),
		Event:      d.event,
		Seq:        shot.Seq,
		Camera:     Sanitize(camera),
	}
}

// Derive returns the absolute target directory, file name and subfolder
// class for one member.
func (d Deriver) Derive(member domain.SourceFile, nc domain.NamingContext) (string, string, domain.Subfolder) {
	at := nc.CapturedAt
	rel := d.folder.Render(func(token string, _ int) string {
		switch token {
		case "year":
			return at.Format("2006")
		case "month":
			return at.Format("01")
		case "day":
			return at.Format("02")
		}
		return ""
	})
	dir := filepath.Join(d.libraryRoot, filepath.FromSlash(rel))

	class := domain.SubfolderFlat
	if d.split {
		class = domain.SubfolderJPG
		if member.IsRAW() {
			class = domain.SubfolderRaw
		}
		dir = filepath.Join(dir, string(class))
	}

	return dir, d.Stem(nc) + member.Ext, class
}

// Stem renders the file name without extension.
func (d Deriver) Stem(nc domain.NamingContext) string {
	pattern := d.pattern
	if nc.Event == "" && pattern.Has("event") {
		pattern = d.fallback
	}
	values := func(token string, width int) string {
		switch token {
		case "date":
			return nc.CapturedAt.Format("20060102")
		case "time":
			return nc.CapturedAt.Format("150405")
		case "event":
			return nc.Event
		case "camera":
			return nc.Camera
		case "seq":
			return fmt.Sprintf("%0*d", width, nc.Seq)
		}
		return ""
	}
	stem := pattern.Render(values)
	if stem == "" {
		stem = d.fallback.Render(values)
	}
	return stem
}
