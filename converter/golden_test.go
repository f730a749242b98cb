package converter

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

var updateGolden = flag.Bool("update", false, "rewrite the .html files in testdata archives")

// goldenConfig reads "key: value" option lines from an archive comment.
func goldenConfig(comment []byte) (Config, error) {
	var cfg Config
	for _, line := range strings.Split(string(comment), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "headingOffset":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, fmt.Errorf("headingOffset: %w", err)
			}
			cfg.HeadingOffset = n
		case "linkBase":
			cfg.LinkBase = value
		case "imageBase":
			cfg.ImageBase = value
		case "emptyReferencesText":
			cfg.EmptyReferencesText = value
		case "templates":
			cfg.Templates.Default = TemplateMode(value)
		case "highlightClasses":
			cfg.Highlight.Classes = value == "true"
		default:
			return Config{}, fmt.Errorf("unknown option %q", key)
		}
	}
	return cfg, nil
}

func TestGoldenFiles(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txt"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txt"), func(t *testing.T) {
			archive, err := txtar.ParseFile(file)
			require.NoError(t, err)

			cfg, err := goldenConfig(archive.Comment)
			require.NoError(t, err)
			conv := newTestConverter(t, cfg)

			changed := false
			for i := 0; i+2 <= len(archive.Files); i += 2 {
				wiki := archive.Files[i]
				want := &archive.Files[i+1]
				name := strings.TrimSuffix(wiki.Name, ".wiki")
				require.Equal(t, name, strings.TrimSuffix(want.Name, ".html"), "mismatched file pair: %s and %s", wiki.Name, want.Name)

				t.Run(name, func(t *testing.T) {
					source := strings.TrimSuffix(string(wiki.Data), "\n")
					result, err := conv.Convert(source)
					require.NoError(t, err)

					have := result.HTML + "\n"
					if *updateGolden {
						if have != string(want.Data) {
							want.Data = []byte(have)
							changed = true
						}
						return
					}
					assert.Equal(t, string(want.Data), have, "input %q", source)
				})
			}

			if changed {
				require.NoError(t, os.WriteFile(file, txtar.Format(archive), 0o644))
			}
		})
	}
}
