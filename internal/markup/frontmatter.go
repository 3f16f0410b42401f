package markup

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterFence = "---"

// SplitFrontMatter decodes a leading YAML front matter block into v and
// returns the remaining markdown. Sources without front matter are
// returned unchanged with found set to false.
func SplitFrontMatter(src string, v any) (body string, found bool, err error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	if !strings.HasPrefix(src, frontMatterFence+"\n") {
		return src, false, nil
	}
	rest := src[len(frontMatterFence)+1:]

	var end int
	switch {
	case strings.HasPrefix(rest, frontMatterFence+"\n"):
		end = 0
	default:
		i := strings.Index(rest, "\n"+frontMatterFence+"\n")
		if i < 0 {
			if !strings.HasSuffix(rest, "\n"+frontMatterFence) {
				return src, false, nil
			}
			i = len(rest) - len(frontMatterFence) - 1
		}
		end = i + 1
	}

	if err := yaml.Unmarshal([]byte(rest[:end]), v); err != nil {
		return src, true, fmt.Errorf("decoding front matter: %w", err)
	}
	body = strings.TrimPrefix(rest[end:], frontMatterFence)
	body = strings.TrimPrefix(body, "\n")
	return strings.TrimLeft(body, "\n"), true, nil
}

// AddFrontMatter prepends v encoded as a YAML front matter block.
func AddFrontMatter(src string, v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontMatterFence + "\n")
	b.Write(data)
	b.WriteString(frontMatterFence + "\n\n")
	b.WriteString(src)
	return b.String(), nil
}
