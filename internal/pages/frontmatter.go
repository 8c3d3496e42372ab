package pages

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Header is the YAML front matter of a page.
type Header struct {
	ID       string                `yaml:"id"`
	Title    string                `yaml:"title"`
	Template string                `yaml:"template"`
	Event    *EventHeader          `yaml:"event"`
	Taxonomy map[string]StringList `yaml:"taxonomy"`
}

// EventHeader holds the raw event fields. Values stay strings; parsing is
// left to catalog ingestion.
type EventHeader struct {
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Repeat   string `yaml:"repeat"`
	Freq     string `yaml:"freq"`
	Until    string `yaml:"until"`
	Location string `yaml:"location"`
}

// StringList accepts either a scalar or a sequence of scalars.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: taxonomy values must be scalars", item.Line)
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: taxonomy value must be a string or a list", node.Line)
	}
}

var (
	delimiter = []byte("---")

	errNoFrontMatter = errors.New("no front matter")
)

// ParseHeader decodes the front matter block between the leading "---"
// line and the next "---" line.
func ParseHeader(data []byte) (Header, error) {
	raw, err := splitFrontMatter(data)
	if err != nil {
		return Header{}, err
	}
	var h Header
	if err := yaml.Unmarshal(raw, &h); err != nil {
		return Header{}, fmt.Errorf("front matter: %w", err)
	}
	return h, nil
}

func splitFrontMatter(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), delimiter) {
		return nil, errNoFrontMatter
	}

	var buf bytes.Buffer
	for _, line := range lines[1:] {
		if bytes.Equal(bytes.TrimSpace(line), delimiter) {
			return buf.Bytes(), nil
		}
		buf.Write(line)
	}
	return nil, errors.New("front matter not terminated")
}

func (h Header) taxonomy() map[string][]string {
	if len(h.Taxonomy) == 0 {
		return nil
	}
	out := make(map[string][]string, len(h.Taxonomy))
	for k, v := range h.Taxonomy {
		out[k] = []string(v)
	}
	return out
}
