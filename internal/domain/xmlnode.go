package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// SOAP language list contract.
const (
	LanguageListMethod    = "GetLanguageList"
	LanguageListResultTag = LanguageListMethod + "Result"
)

// XMLNode is a structural dump of one XML element.
type XMLNode struct {
	Tag        string            `json:"tag"`
	Namespace  string            `json:"namespace,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Children   []XMLNode         `json:"children,omitempty"`
	Text       *string           `json:"text,omitempty"`
}

// AdaptLanguageListResponse dumps every GetLanguageListResult element found in
// raw as a JSON array of XMLNode, in document order.
//
// Unparseable XML does not fail the call: the parse error becomes the text of
// a synthetic <error> element, which is dumped as a single JSON object.
// The returned error only reports a JSON encoding failure.
func AdaptLanguageListResponse(raw []byte) ([]byte, error) {
	nodes, err := FindXMLNodes(raw, LanguageListResultTag)
	if err != nil {
		return encodeNodes(errorNode(err))
	}
	return encodeNodes(nodes)
}

// FindXMLNodes parses raw and returns every element whose local name is tag,
// regardless of namespace. Nested matches are included.
func FindXMLNodes(raw []byte, tag string) ([]XMLNode, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedUpstreamXML, err)
	}
	if err := checkTopLevel(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedUpstreamXML, err)
	}

	nodes := []XMLNode{}
	collect(doc.Root(), tag, &nodes)
	return nodes, nil
}

// checkTopLevel rejects documents etree accepts but XML does not: more than
// one root element, or text outside the root.
func checkTopLevel(doc *etree.Document) error {
	for _, tok := range doc.Child {
		if cd, ok := tok.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return fmt.Errorf("text outside the root element: %q", strings.TrimSpace(cd.Data))
		}
	}
	switch n := len(doc.ChildElements()); {
	case n == 0:
		return errors.New("root element is missing")
	case n > 1:
		return fmt.Errorf("document has %d root elements", n)
	}
	return nil
}

func collect(e *etree.Element, tag string, out *[]XMLNode) {
	if e.Tag == tag {
		*out = append(*out, nodeFromElement(e))
	}
	for _, child := range e.ChildElements() {
		collect(child, tag, out)
	}
}

func nodeFromElement(e *etree.Element) XMLNode {
	node := XMLNode{
		Tag:       e.Tag,
		Namespace: e.NamespaceURI(),
	}

	if len(e.Attr) > 0 {
		node.Attributes = make(map[string]string, len(e.Attr))
		for _, a := range e.Attr {
			node.Attributes[a.FullKey()] = a.Value
		}
	}

	var text strings.Builder
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.Element:
			node.Children = append(node.Children, nodeFromElement(t))
		case *etree.CharData:
			text.WriteString(t.Data)
		}
	}
	if s := strings.TrimSpace(text.String()); s != "" {
		node.Text = &s
	}

	return node
}

// errorNode is the dump of <error>{message}</error>.
func errorNode(err error) XMLNode {
	msg := err.Error()
	return XMLNode{Tag: "error", Text: &msg}
}

func encodeNodes(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode xml nodes: %w", err)
	}
	return data, nil
}
