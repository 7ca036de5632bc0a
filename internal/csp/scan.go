package csp

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/css/scanner"
)

var (
	cssURLPattern = regexp.MustCompile(`url\(([^)]+)\)`)
	quoteStripper = strings.NewReplacer(`'`, "", `"`, "")
)

// findLinkedStyles adds the href of every <link> to style-src.
func (r *run) findLinkedStyles() {
	r.doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			r.debug("Found linked style with no href.", "rel", attrOrEmpty(s, "rel"))
			return
		}
		r.debug("Found linked style.", "href", href)
		r.policy.Append(StyleSrc, href)
	})
}

// findImages adds the directory of every remote <img> source to img-src,
// plus the origin of every remote url(...) referenced from a <style> block.
func (r *run) findImages() {
	r.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && isRemote(src) {
			r.policy.Append(ImgSrc, pathPrefix(src))
		}
	})

	r.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		for _, ref := range cssURLs(s.Text()) {
			if !isRemote(ref) {
				continue
			}
			origin, ok := originOf(ref)
			if !ok {
				r.debug("Skipping unparseable url() reference.", "url", ref)
				continue
			}
			r.policy.Append(ImgSrc, origin)
		}
	})
}

// findInlineStyles adds the hash of every <style> block to style-src.
func (r *run) findInlineStyles() {
	r.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		r.policy.Append(StyleSrc, r.hasher.Hash(s.Text()))
	})
}

// findScripts adds the directory of every remote script to script-src and
// the hash of every inline script.
func (r *run) findScripts() {
	r.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			r.policy.Append(ScriptSrc, r.hasher.Hash(s.Text()))
			return
		}
		if isRemote(src) {
			r.policy.Append(ScriptSrc, pathPrefix(src))
		}
	})
}

// findFrames adds the full source of every remote frame to frame-src.
func (r *run) findFrames() {
	r.doc.Find("iframe, frame").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && isRemote(src) {
			r.policy.Append(FrameSrc, src)
		}
	})
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http")
}

// pathPrefix drops the final path segment, keeping the trailing slash:
// https://cdn.example.com/assets/app.js becomes https://cdn.example.com/assets/.
func pathPrefix(ref string) string {
	i := strings.LastIndex(ref, "/")
	if i < 0 {
		return ref
	}
	return ref[:i+1]
}

// originOf returns scheme://host for ref, without port or userinfo.
func originOf(ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	host := u.Hostname()
	if host == "" {
		return "", false
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return u.Scheme + "://" + host, true
}

// cssURLs returns every url(...) reference in css with quotes removed.
// Text inside comments and string literals is not a reference and is
// skipped.
func cssURLs(css string) []string {
	var refs []string

	s := scanner.New(css)
	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF {
			return refs
		}
		if tok.Type == scanner.TokenError {
			// The tokenizer stops at the first error; fall back to a plain
			// match over the whole text.
			return matchCSSURLs(css)
		}
		if tok.Type != scanner.TokenURI {
			continue
		}
		if found := matchCSSURLs(tok.Value); len(found) > 0 {
			refs = append(refs, found...)
			continue
		}
		if ref := cleanCSSURL(tok.Value); ref != "" {
			refs = append(refs, ref)
		}
	}
}

func matchCSSURLs(text string) []string {
	var refs []string
	for _, m := range cssURLPattern.FindAllStringSubmatch(text, -1) {
		if ref := cleanCSSURL(m[1]); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

func cleanCSSURL(ref string) string {
	return strings.TrimSpace(quoteStripper.Replace(ref))
}

func attrOrEmpty(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return v
}
