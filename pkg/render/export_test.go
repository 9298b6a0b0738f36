package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/flowview/pkg/errors"
)

func TestExport(t *testing.T) {
	out := string(Export([]byte(`<svg width="10"><g/></svg>`), ".a{}"))

	if !strings.HasPrefix(out, XMLDeclaration) {
		t.Errorf("Export() missing declaration: %q", out)
	}
	for _, want := range []string{
		`xmlns="http://www.w3.org/2000/svg"`,
		`xmlns:xlink="http://www.w3.org/1999/xlink"`,
		`<svg width="10" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"><defs><style type="text/css"><![CDATA[.a{}]]></style></defs><g/></svg>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Export() missing %q\n%s", want, out)
		}
	}
}

func TestExportKeepsExistingNamespaces(t *testing.T) {
	in := `<?xml version="1.0"?>` + "\n" + `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"></svg>`
	out := string(Export([]byte(in), ""))

	if n := strings.Count(out, "xmlns="); n != 1 {
		t.Errorf("xmlns declared %d times, want 1\n%s", n, out)
	}
	if n := strings.Count(out, "xmlns:xlink="); n != 1 {
		t.Errorf("xmlns:xlink declared %d times, want 1\n%s", n, out)
	}
	if n := strings.Count(out, "<?xml"); n != 1 {
		t.Errorf("%d XML declarations, want 1\n%s", n, out)
	}
	if strings.Contains(out, "<defs>") {
		t.Error("empty stylesheet was embedded")
	}
}

func TestExportSelfClosing(t *testing.T) {
	out := string(Export([]byte(`<svg/>`), ""))
	want := XMLDeclaration + `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"/>`
	if out != want {
		t.Errorf("Export() = %q, want %q", out, want)
	}
}

func TestExportWithoutSVG(t *testing.T) {
	out := string(Export([]byte("plain"), ".a{}"))
	if out != XMLDeclaration+"plain" {
		t.Errorf("Export() = %q", out)
	}
}

func TestConvertWithoutRsvg(t *testing.T) {
	t.Setenv("PATH", "")
	_, err := ToPDF(context.Background(), []byte("<svg/>"))
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPDF() error = %v, want UNSUPPORTED", err)
	}
}

func TestToPNG(t *testing.T) {
	if !Available() {
		t.Skip("rsvg-convert not installed")
	}
	svg := Export([]byte(`<svg width="10" height="10"><rect width="10" height="10"/></svg>`), "")
	png, err := ToPNG(context.Background(), svg, 1)
	if err != nil {
		t.Fatalf("ToPNG() error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("ToPNG() did not return a PNG")
	}
}
