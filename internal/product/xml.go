package product

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// xmlNode is a generic element tree. The RCM product schema is deeply
// nested and namespace-qualified; extraction works by local element name,
// matching how the format definition names fields, so a full struct
// mapping of the schema is unnecessary.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

// iter returns every descendant element (including the node itself) whose
// local name matches, in document order.
func (n *xmlNode) iter(local string) []*xmlNode {
	var out []*xmlNode
	if n.XMLName.Local == local {
		out = append(out, n)
	}
	for i := range n.Nodes {
		out = append(out, n.Nodes[i].iter(local)...)
	}
	return out
}

// first returns the first descendant element with the given local name.
func (n *xmlNode) first(local string) *xmlNode {
	if n.XMLName.Local == local {
		return n
	}
	for i := range n.Nodes {
		if m := n.Nodes[i].first(local); m != nil {
			return m
		}
	}
	return nil
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// text returns the trimmed character data of the first descendant with the
// given local name.
func (n *xmlNode) text(local string) (string, error) {
	m := n.first(local)
	if m == nil {
		return "", fmt.Errorf("missing element %q", local)
	}
	return strings.TrimSpace(m.Content), nil
}

func (n *xmlNode) floatText(local string) (float64, error) {
	s, err := n.text(local)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("element %q: %w", local, err)
	}
	return v, nil
}

func (n *xmlNode) intText(local string) (int, error) {
	s, err := n.text(local)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("element %q: %w", local, err)
	}
	return v, nil
}

// floatsText splits the whitespace-separated number list stored in the
// first descendant with the given local name.
func (n *xmlNode) floatsText(local string) ([]float64, error) {
	s, err := n.text(local)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("element %q value %d: %w", local, i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (n *xmlNode) timeText(local string) (time.Time, error) {
	s, err := n.text(local)
	if err != nil {
		return time.Time{}, err
	}
	return ParseTime(s)
}
