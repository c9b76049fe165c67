package template

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/meridian/orchestrator/pkg/errs"
)

const (
	openTag      = "{{"
	closeTag     = "}}"
	eachPrefix   = "#each "
	eachCloseTag = "{{/each}}"
)

// renderBytes scans src for {{var}} placeholders and {{#each list}}...
// {{/each}} blocks, resolving every binding against ns. A placeholder
// with no binding fails with an InvalidArgument carrying the
// "MissingVariable" failure mode in its reason, unless it is marked
// optional with a trailing "?".
func renderBytes(src []byte, ns Namespace) ([]byte, error) {
	var out bytes.Buffer
	i := 0
	for i < len(src) {
		start := bytes.Index(src[i:], []byte(openTag))
		if start < 0 {
			out.Write(src[i:])
			break
		}
		out.Write(src[i : i+start])
		i += start

		end := bytes.Index(src[i:], []byte(closeTag))
		if end < 0 {
			return nil, errs.New(errs.InvalidArgument, "unterminated {{ in template")
		}
		token := strings.TrimSpace(string(src[i+len(openTag) : i+end]))
		i += end + len(closeTag)

		if strings.HasPrefix(token, eachPrefix) {
			rendered, advance, err := renderEach(src[i:], strings.TrimSpace(strings.TrimPrefix(token, eachPrefix)), ns)
			if err != nil {
				return nil, err
			}
			out.Write(rendered)
			i += advance
			continue
		}

		rendered, err := renderPlaceholder(token, ns)
		if err != nil {
			return nil, err
		}
		out.WriteString(rendered)
	}
	return out.Bytes(), nil
}

func renderEach(rest []byte, listName string, ns Namespace) (rendered []byte, advance int, err error) {
	closeIdx := bytes.Index(rest, []byte(eachCloseTag))
	if closeIdx < 0 {
		return nil, 0, errs.New(errs.InvalidArgument, "unterminated {{#each}} block")
	}
	body := rest[:closeIdx]
	advance = closeIdx + len(eachCloseTag)

	items, ok := ns.Lists[listName]
	if !ok {
		return nil, 0, missingVariable(listName)
	}

	var out bytes.Buffer
	for _, item := range items {
		part, err := renderBytes(body, ns.withKV(item))
		if err != nil {
			return nil, 0, err
		}
		out.Write(part)
	}
	return out.Bytes(), advance, nil
}

func renderPlaceholder(token string, ns Namespace) (string, error) {
	optional := strings.HasSuffix(token, "?")
	name := strings.TrimSuffix(token, "?")

	val, ok := ns.lookup(name)
	if !ok {
		if optional {
			return "", nil
		}
		return "", missingVariable(name)
	}
	return val, nil
}

func missingVariable(name string) error {
	return errs.New(errs.InvalidArgument, fmt.Sprintf("MissingVariable: %q has no binding in this render context", name))
}
