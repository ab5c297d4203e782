package source

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

var (
	errNoContainer = errors.New("epub: missing META-INF/container.xml")
	errNoRootfile  = errors.New("epub: no rootfile in container.xml")
)

type epubContainer struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest []epubItem `xml:"manifest>item"`
	Spine    []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

type epubItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

func (i epubItem) isDocument() bool {
	return i.MediaType == "application/xhtml+xml" || i.MediaType == "text/html"
}

// documents returns the HTML content items in reading order: the spine when
// present, the manifest order otherwise.
func (p *epubPackage) documents() []epubItem {
	byID := make(map[string]epubItem, len(p.Manifest))
	for _, item := range p.Manifest {
		byID[item.ID] = item
	}

	var docs []epubItem
	for _, ref := range p.Spine {
		if item, ok := byID[ref.IDRef]; ok && item.isDocument() {
			docs = append(docs, item)
		}
	}
	if len(docs) > 0 {
		return docs
	}
	for _, item := range p.Manifest {
		if item.isDocument() {
			docs = append(docs, item)
		}
	}
	return docs
}

// loadEPUB returns the visible text of every content document of an EPUB,
// joined with spaces.
func loadEPUB(filePath string) (string, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("epub: open archive: %w", err)
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfPath, err := epubRootfile(files)
	if err != nil {
		return "", err
	}
	opfData, err := readZipFile(files, opfPath)
	if err != nil {
		return "", fmt.Errorf("epub: read package %s: %w", opfPath, err)
	}
	var pkg epubPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return "", fmt.Errorf("epub: parse package %s: %w", opfPath, err)
	}

	baseDir := path.Dir(opfPath)
	var texts []string
	for _, item := range pkg.documents() {
		data, err := readZipFile(files, resolveHref(baseDir, item.Href))
		if err != nil {
			// manifests sometimes list files the archive lacks
			continue
		}
		text, err := htmlText(data)
		if err != nil {
			return "", fmt.Errorf("epub: parse %s: %w", item.Href, err)
		}
		texts = append(texts, text)
	}

	return strings.Join(texts, " "), nil
}

func epubRootfile(files map[string]*zip.File) (string, error) {
	data, err := readZipFile(files, "META-INF/container.xml")
	if err != nil {
		return "", errNoContainer
	}
	var c epubContainer
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("epub: parse container.xml: %w", err)
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" && (rf.MediaType == "" || rf.MediaType == "application/oebps-package+xml") {
			return rf.FullPath, nil
		}
	}
	if len(c.Rootfiles) > 0 && c.Rootfiles[0].FullPath != "" {
		return c.Rootfiles[0].FullPath, nil
	}
	return "", errNoRootfile
}

func resolveHref(baseDir, href string) string {
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	if baseDir == "." || baseDir == "" {
		return href
	}
	return path.Join(baseDir, href)
}

func readZipFile(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("%s: not in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// blockElements end with a line break in extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "pre": true,
}

// htmlText returns the text content of an (X)HTML document, skipping
// head, script and style elements.
func htmlText(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "head", "script", "style":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	return b.String(), nil
}
