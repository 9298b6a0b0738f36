package render

import (
	"bytes"
	"regexp"
)

const (
	// XMLDeclaration starts every exported document.
	XMLDeclaration = "<?xml version=\"1.0\" standalone=\"no\"?>\r\n"

	SVGNamespace   = "http://www.w3.org/2000/svg"
	XLinkNamespace = "http://www.w3.org/1999/xlink"
)

var (
	svgTagRe  = regexp.MustCompile(`<svg\b[^>]*>`)
	xmlDeclRe = regexp.MustCompile(`^\s*<\?xml[^>]*\?>\s*`)
	xmlnsRe   = regexp.MustCompile(`\sxmlns\s*=`)
	xlinkNSRe = regexp.MustCompile(`\sxmlns:xlink\s*=`)
)

// Export makes svg a standalone document. The stylesheet css is embedded
// in a <defs> block right after the opening <svg> tag, missing namespace
// declarations are added to that tag, and any existing XML declaration is
// replaced by [XMLDeclaration]. Markup without an <svg> element is only
// given the declaration.
func Export(svg []byte, css string) []byte {
	body := xmlDeclRe.ReplaceAll(svg, nil)

	var out bytes.Buffer
	out.WriteString(XMLDeclaration)

	loc := svgTagRe.FindIndex(body)
	if loc == nil {
		out.Write(body)
		return out.Bytes()
	}

	tag := body[loc[0]:loc[1]]
	out.Write(body[:loc[0]])
	out.Write(withNamespaces(tag))
	if css != "" {
		out.WriteString(`<defs><style type="text/css"><![CDATA[`)
		out.WriteString(css)
		out.WriteString(`]]></style></defs>`)
	}
	out.Write(body[loc[1]:])
	return out.Bytes()
}

func withNamespaces(tag []byte) []byte {
	var attrs []byte
	if !xmlnsRe.Match(tag) {
		attrs = append(attrs, ` xmlns="`+SVGNamespace+`"`...)
	}
	if !xlinkNSRe.Match(tag) {
		attrs = append(attrs, ` xmlns:xlink="`+XLinkNamespace+`"`...)
	}
	if len(attrs) == 0 {
		return tag
	}
	end := len(tag) - 1
	if end > 0 && tag[end-1] == '/' {
		end--
	}
	out := make([]byte, 0, len(tag)+len(attrs))
	out = append(out, tag[:end]...)
	out = append(out, attrs...)
	out = append(out, tag[end:]...)
	return out
}
