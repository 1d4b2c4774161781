package network

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/leengari/tablehub/internal/domain/data"
)

var invalidElementChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// renderXML converts a payload into attribute-free XML under a <root> element.
// Objects become child elements named after their keys, lists become <item>
// elements and NULL becomes an empty element.
func renderXML(payload interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{Name: xml.Name{Local: "root"}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	if err := encodeXMLValue(enc, payload); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXMLValue(enc *xml.Encoder, v interface{}) error {
	switch x := v.(type) {
	case nil:
		return nil
	case []data.Row:
		for _, row := range x {
			if err := encodeXMLElement(enc, "item", row); err != nil {
				return err
			}
		}
		return nil
	case data.Row:
		return encodeXMLPairs(enc, x.Columns, x.Values)
	case *data.Row:
		return encodeXMLPairs(enc, x.Columns, x.Values)
	case data.Record:
		return encodeXMLPairs(enc, x.Keys, x.Values)
	case map[string]interface{}:
		keys := sortedKeys(x)
		values := make([]interface{}, len(keys))
		for i, k := range keys {
			values[i] = x[k]
		}
		return encodeXMLPairs(enc, keys, values)
	case []interface{}:
		for _, item := range x {
			if err := encodeXMLElement(enc, "item", item); err != nil {
				return err
			}
		}
		return nil
	case string, bool, int64, float64, int:
		return enc.EncodeToken(xml.CharData(fmt.Sprint(x)))
	default:
		generic, err := toGeneric(x)
		if err != nil {
			return err
		}
		return encodeXMLValue(enc, generic)
	}
}

func encodeXMLPairs(enc *xml.Encoder, keys []string, values []interface{}) error {
	for i, k := range keys {
		if err := encodeXMLElement(enc, elementName(k), values[i]); err != nil {
			return err
		}
	}
	return nil
}

func encodeXMLElement(enc *xml.Encoder, name string, v interface{}) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeXMLValue(enc, v); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

// elementName turns a key into a valid XML element name
func elementName(key string) string {
	name := invalidElementChars.ReplaceAllString(key, "_")
	if name == "" {
		return "key"
	}
	if c := name[0]; !(c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
		name = "key_" + name
	}
	if strings.HasPrefix(strings.ToLower(name), "xml") {
		name = "_" + name
	}
	return name
}
