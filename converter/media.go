package converter

import (
	"regexp"
	"strings"
)

var imageSizePattern = regexp.MustCompile(`^(\d*)(?:x(\d+))?px$`)

var imageAlignments = map[string]bool{
	"left":   true,
	"right":  true,
	"center": true,
	"none":   true,
}

var imageFrames = map[string]bool{
	"thumb":     true,
	"thumbnail": true,
	"frame":     true,
	"frameless": true,
	"border":    true,
}

// imageFilename reports whether target names a file in one of the
// configured image namespaces and returns the filename part.
func (s *state) imageFilename(target string) (string, bool) {
	namespace, filename, ok := strings.Cut(target, ":")
	if !ok {
		return "", false
	}
	namespace = strings.TrimSpace(namespace)
	for _, candidate := range s.config.ImageNamespaces {
		if strings.EqualFold(namespace, candidate) {
			return strings.TrimSpace(filename), true
		}
	}
	return "", false
}

// renderImage renders an image link. Size, alignment and frame options are
// recognized; the last other parameter becomes the alt text.
func (s *state) renderImage(target, filename string, params []string, stash *inlineStash) string {
	var classes []string
	var width, height, alt string

	for _, param := range params {
		param = strings.TrimSpace(param)
		lower := strings.ToLower(param)
		switch {
		case param == "":
		case imageAlignments[lower]:
			classes = append(classes, "float-"+lower)
		case imageFrames[lower]:
			classes = append(classes, lower)
		case imageSizePattern.MatchString(lower) && lower != "px":
			sub := imageSizePattern.FindStringSubmatch(lower)
			width, height = sub[1], sub[2]
		default:
			alt = param
		}
	}
	if alt == "" {
		alt = target
	}
	alt = plainText(stash.expand(alt))

	src := s.resolveImage("image", filename)

	var sb strings.Builder
	sb.WriteString(`<img src="` + escapeHTML(src) + `" alt="` + escapeHTML(alt) + `"`)
	if len(classes) > 0 {
		sb.WriteString(` class="` + escapeHTML(strings.Join(classes, " ")) + `"`)
	}
	if width != "" {
		sb.WriteString(` width="` + width + `"`)
	}
	if height != "" {
		sb.WriteString(` height="` + height + `"`)
	}
	sb.WriteString(" />")
	return sb.String()
}
