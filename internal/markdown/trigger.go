package markdown

import (
	"strings"

	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/doc"
)

// Live-trigger transformers fire while typing, where only the trigger
// text exists and no complete multi-line buffer is available yet.

// TriggerCodeFence converts a paragraph whose text is a lone opening
// fence (```lang) into an empty code block at the same tree position.
// There is no closing fence at this point; the surrounding blocks are
// left exactly where they are.
func TriggerCodeFence(d *doc.Draft, paragraphKey string) bool {
	p := d.Node(paragraphKey)
	if p == nil || p.Type != block.TypeParagraph {
		return false
	}
	m := fenceRe.FindStringSubmatch(strings.TrimSpace(p.PlainText()))
	if m == nil {
		return false
	}
	return d.Replace(paragraphKey, block.NewCode("", m[1]))
}

// TriggerImage converts a paragraph whose text matches the image syntax
// into a loading media block. This is the import/live half of the media
// transformer pair; the export half lives in the container-level pass.
func TriggerImage(d *doc.Draft, paragraphKey string) bool {
	p := d.Node(paragraphKey)
	if p == nil || p.Type != block.TypeParagraph {
		return false
	}
	m := imageRe.FindStringSubmatch(strings.TrimSpace(p.PlainText()))
	if m == nil {
		return false
	}
	media := block.NewMedia(block.MediaImage, m[2])
	media.Text = m[1]
	return d.Replace(paragraphKey, media)
}
