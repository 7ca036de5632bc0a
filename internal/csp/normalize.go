package csp

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// StyleIDPrefix starts every id generated for an element whose style
// attribute was moved into a <style> block.
const StyleIDPrefix = "csp-gen-"

// normalizeInlineStyles moves every style="..." attribute into a generated
// <style> rule targeting the element's id, so the rule can be hashed. The
// element keeps its id or receives a generated one. Without a head or body
// the rule is dropped and the attribute is still removed.
func (r *run) normalizeInlineStyles() {
	styled := r.doc.Find("[style]")
	if styled.Length() == 0 {
		return
	}

	r.collectIDs()
	target, where := insertionPoint(r.doc)

	styled.Each(func(_ int, el *goquery.Selection) {
		style, _ := el.Attr("style")

		id, ok := el.Attr("id")
		if !ok || id == "" {
			id = r.anchorID(style)
			el.SetAttr("id", id)
		}
		el.RemoveAttr("style")

		if target == nil {
			r.debug("Unable to convert style attribute to inline style, no HEAD or BODY found.", "id", id)
			return
		}

		target.AppendNodes(newStyleElement("#" + id + " { " + style + " }"))
		r.debug("Converting style attribute to inline style, inserted into "+where+".", "id", id)
	})
}

func (r *run) collectIDs() {
	r.ids = make(map[string]struct{})
	r.doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok {
			r.ids[id] = struct{}{}
		}
	})
}

// anchorID derives an id from the style text and a per-run sequence number.
// The same document always yields the same ids, and an id already present
// in the document is never reused.
func (r *run) anchorID(style string) string {
	for {
		r.seq++
		sum := sha256.Sum256([]byte(style + "#" + strconv.Itoa(r.seq)))
		id := StyleIDPrefix + hex.EncodeToString(sum[:8])
		if _, taken := r.ids[id]; taken {
			continue
		}
		r.ids[id] = struct{}{}
		return id
	}
}
