package pdf

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

const (
	logoWidth  = 120.0
	logoHeight = 80.0

	panelPadding = 8.0
	clientWidth  = 230.0
	totalsWidth  = 230.0
	termsLine    = 14.0

	// right of the logo box
	headerBlockWidth = pageWidth - 2*margin - logoWidth - 10
)

type rgb struct{ r, g, b int }

var (
	colorText      = rgb{33, 37, 41}
	colorMuted     = rgb{108, 117, 125}
	colorRule      = rgb{173, 181, 189}
	colorPanel     = rgb{245, 246, 248}
	colorHeader    = rgb{52, 73, 94}
	colorStripe    = rgb{248, 249, 250}
	colorHighlight = rgb{21, 101, 192}
	colorWhite     = rgb{255, 255, 255}
)

// canvas carries the flow cursor for one render. Each section starts at y
// and leaves y below what it drew.
type canvas struct {
	pdf    *gofpdf.Fpdf
	face   face
	doc    *quote.Document
	logger *slog.Logger
	y      float64
}

func (c *canvas) draw() {
	c.pdf.SetFooterFunc(c.footer)
	c.pdf.AddPage()
	c.y = margin

	c.header()
	c.titleAndClient()
	c.itemTable()
	c.totals()
	c.terms()
	c.signatures()
}

// text prepares directional text for drawing.
func (c *canvas) text(s string) string {
	return c.face.encode(visual(s))
}

// plain prepares numeric text that is drawn left to right.
func (c *canvas) plain(s string) string {
	return c.face.encode(s)
}

func (c *canvas) font(style string, size float64) {
	c.pdf.SetFont(c.face.family, style, size)
}

func (c *canvas) textColor(col rgb) { c.pdf.SetTextColor(col.r, col.g, col.b) }
func (c *canvas) fillColor(col rgb) { c.pdf.SetFillColor(col.r, col.g, col.b) }
func (c *canvas) drawColor(col rgb) { c.pdf.SetDrawColor(col.r, col.g, col.b) }

// cell draws prepared text in a box at (x, y).
func (c *canvas) cell(x, y, w, h float64, txt, align string, fill bool) {
	c.pdf.SetXY(x, y)
	c.pdf.CellFormat(w, h, txt, "", 0, align, fill, 0, "")
}

func (c *canvas) rule(y float64) {
	c.drawColor(colorRule)
	c.pdf.SetLineWidth(0.5)
	c.pdf.Line(margin, y, pageWidth-margin, y)
}

// ensure moves to a new page when h more points would cross the content
// bottom. It reports whether a page was added.
func (c *canvas) ensure(h float64) bool {
	if c.y+h <= contentBottom {
		return false
	}

	c.newPage()

	return true
}

func (c *canvas) newPage() {
	c.pdf.AddPage()
	c.y = margin
}

func (c *canvas) header() {
	top := c.y
	right := pageWidth - margin
	blockW := headerBlockWidth

	c.logo(margin, top)

	y := top

	c.textColor(colorText)
	c.font("B", 16)
	c.cell(right-blockW, y, blockW, 22, c.text(c.businessName()), "R", false)
	y += 24

	c.font("", 10)
	c.textColor(colorMuted)

	for _, line := range []string{c.doc.Business.Address, c.doc.Business.Phone, c.doc.Business.Email} {
		if line == "" {
			continue
		}

		c.cell(right-blockW, y, blockW, lineHeight, c.text(line), "R", false)
		y += lineHeight
	}

	bottom := max(y, top+logoHeight) + 8
	c.rule(bottom)

	c.y = bottom + 15
}

// logo draws the business logo inside the logo box, scaled to fit. A missing
// or unreadable image is skipped.
// businessName is the header title cut to the block beside the logo. The
// bold 16pt face must be set.
func (c *canvas) businessName() string {
	return c.fit(c.doc.Business.Name, headerBlockWidth-6)
}

func (c *canvas) logo(x, y float64) {
	p := c.doc.Business.LogoPath
	if p == "" {
		return
	}

	imgType := strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
	switch imgType {
	case "png", "jpg", "jpeg", "gif":
	default:
		c.logger.Warn("skipping logo with unsupported type", "path", p)
		return
	}

	data, err := os.ReadFile(p)
	if err != nil {
		c.logger.Warn("skipping unreadable logo", "path", p, "error", err)
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imgType}

	info := c.pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	if err := c.pdf.Error(); err != nil || info == nil {
		c.pdf.ClearError()
		c.logger.Warn("skipping invalid logo", "path", p, "error", err)

		return
	}

	iw, ih := info.Extent()
	if iw <= 0 || ih <= 0 {
		return
	}

	scale := min(logoWidth/iw, logoHeight/ih)
	w, h := iw*scale, ih*scale

	c.pdf.ImageOptions("logo", x+(logoWidth-w)/2, y+(logoHeight-h)/2, w, h, false, opts, 0, "")
}

// titleAndClient draws the document title block in the right column and the
// client panel in the left column, side by side.
func (c *canvas) titleAndClient() {
	top := c.y
	right := pageWidth - margin
	colW := pageWidth - 2*margin - clientWidth - 20

	y := top

	c.textColor(colorText)
	c.font("B", 20)
	c.cell(right-colW, y, colW, 26, c.text(defaultTitle), "R", false)
	y += 30

	c.font("", 11)

	for _, line := range []string{
		"מספר הצעה: " + c.doc.QuoteNumber,
		"תאריך: " + formatDate(c.doc.IssueDate),
		"בתוקף עד: " + formatDate(c.doc.ExpiryDate),
	} {
		c.cell(right-colW, y, colW, lineHeight, c.text(line), "R", false)
		y += lineHeight
	}

	clientBottom := c.clientPanel(margin, top)

	c.y = max(y, clientBottom) + 20
}

func (c *canvas) clientPanel(x, top float64) float64 {
	cl := c.doc.Client

	type line struct {
		txt   string
		bold  bool
		muted bool
	}

	lines := []line{{txt: "לכבוד", muted: true}, {txt: cl.Name, bold: true}}

	if cl.ContactPerson != "" && cl.ContactPerson != cl.Name {
		lines = append(lines, line{txt: "איש קשר: " + cl.ContactPerson})
	}

	for _, s := range []string{cl.Phone, cl.Address} {
		if s != "" {
			lines = append(lines, line{txt: s})
		}
	}

	h := 2*panelPadding + float64(len(lines))*lineHeight

	c.fillColor(colorPanel)
	c.drawColor(colorRule)
	c.pdf.SetLineWidth(0.5)
	c.pdf.Rect(x, top, clientWidth, h, "FD")

	y := top + panelPadding
	innerW := clientWidth - 2*panelPadding

	for _, l := range lines {
		switch {
		case l.bold:
			c.font("B", 12)
		default:
			c.font("", 10)
		}

		if l.muted {
			c.textColor(colorMuted)
		} else {
			c.textColor(colorText)
		}

		c.cell(x+panelPadding, y, innerW, lineHeight, c.text(l.txt), "R", false)
		y += lineHeight
	}

	return top + h
}

// itemTable draws the header row and one row per item. When a row would
// cross the content bottom the current segment is closed, a page is added
// and the header repeats.
func (c *canvas) itemTable() {
	cols := placeColumns(itemColumns(), pageWidth-margin)
	left := cols[len(cols)-1].x
	width := tableWidth(itemColumns())

	// header plus at least one row stays together
	c.ensure(2 * rowHeight)

	segTop := c.y
	c.tableHeader(cols)

	for i, it := range c.doc.Items {
		if c.y+rowHeight > contentBottom {
			c.tableBorder(cols, left, width, segTop)
			c.newPage()

			segTop = c.y
			c.tableHeader(cols)
		}

		c.tableRow(cols, it, i)
	}

	c.tableBorder(cols, left, width, segTop)

	c.y += 15
}

func (c *canvas) tableHeader(cols []placedColumn) {
	c.fillColor(colorHeader)
	c.textColor(colorWhite)
	c.font("B", 10)

	for _, col := range cols {
		c.cell(col.x, c.y, col.width, rowHeight, c.text(col.label), "C", true)
	}

	c.y += rowHeight

	c.drawColor(colorText)
	c.pdf.SetLineWidth(1)
	c.pdf.Line(cols[len(cols)-1].x, c.y, cols[0].x+cols[0].width, c.y)
}

func (c *canvas) tableRow(cols []placedColumn, it quote.Item, index int) {
	stripe := index%2 == 1
	if stripe {
		c.fillColor(colorStripe)
	}

	c.textColor(colorText)
	c.font("", 10)

	for _, col := range cols {
		v := col.value(it, c.face.currency)

		var txt string
		if col.numeric {
			txt = c.plain(v)
		} else {
			txt = c.text(c.fit(v, col.width-6))
		}

		c.cell(col.x, c.y, col.width, rowHeight, txt, col.align, stripe)
	}

	c.y += rowHeight
}

// tableBorder outlines the segment from segTop to the cursor and draws the
// column separators.
func (c *canvas) tableBorder(cols []placedColumn, left, width, segTop float64) {
	c.drawColor(colorRule)
	c.pdf.SetLineWidth(0.5)
	c.pdf.Rect(left, segTop, width, c.y-segTop, "D")

	for _, col := range cols[:len(cols)-1] {
		c.pdf.Line(col.x, segTop, col.x, c.y)
	}
}

// fit shortens s until it fits in w, marking the cut with an ellipsis.
func (c *canvas) fit(s string, w float64) string {
	if c.pdf.GetStringWidth(c.text(s)) <= w {
		return s
	}

	ellipsis := "…"
	if !c.face.unicode {
		ellipsis = "..."
	}

	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		cand := strings.TrimSpace(string(runes[:n])) + ellipsis
		if c.pdf.GetStringWidth(c.text(cand)) <= w {
			return cand
		}
	}

	return ellipsis
}

func (c *canvas) totals() {
	type row struct {
		label string
		value string
	}

	rows := []row{
		{label: "סכום ביניים", value: formatMoney(c.face.currency, c.doc.Subtotal)},
		{label: fmt.Sprintf("מע\"מ %d%%", quote.VATPercent(c.doc.VATRate)), value: formatMoney(c.face.currency, c.doc.VATAmount)},
	}

	h := 2*panelPadding + float64(len(rows))*lineHeight + 10 + 24

	c.ensure(h)

	x := pageWidth - margin - totalsWidth
	top := c.y
	half := (totalsWidth - 2*panelPadding) / 2

	c.fillColor(colorPanel)
	c.drawColor(colorRule)
	c.pdf.SetLineWidth(0.5)
	c.pdf.Rect(x, top, totalsWidth, h, "FD")

	y := top + panelPadding

	c.font("", 11)
	c.textColor(colorText)

	for _, r := range rows {
		c.cell(x+panelPadding+half, y, half, lineHeight, c.text(r.label), "R", false)
		c.cell(x+panelPadding, y, half, lineHeight, c.plain(r.value), "L", false)
		y += lineHeight
	}

	y += 4
	c.drawColor(colorText)
	c.pdf.Line(x+panelPadding, y, x+totalsWidth-panelPadding, y)
	y += 6

	c.font("B", 14)
	c.textColor(colorHighlight)
	c.cell(x+panelPadding+half, y, half, 24, c.text("סה\"כ לתשלום"), "R", false)
	c.cell(x+panelPadding, y, half, 24, c.plain(formatMoney(c.face.currency, c.doc.Total)), "L", false)

	c.textColor(colorText)

	c.y = top + h + 20
}

// terms draws the terms panel. Long text continues on following pages,
// each page getting its own box segment.
func (c *canvas) terms() {
	body := defaultTerms
	if c.doc.Terms != nil && strings.TrimSpace(*c.doc.Terms) != "" {
		body = *c.doc.Terms
	}

	x := margin
	width := pageWidth - 2*margin
	innerW := width - 2*panelPadding

	c.font("", 10)
	lines := c.wrap(body, innerW)

	c.ensure(2*panelPadding + rowHeight + min(float64(len(lines)), 3)*termsLine)

	segTop := c.y
	y := segTop + panelPadding

	c.font("B", 12)
	c.textColor(colorText)
	c.cell(x+panelPadding, y, innerW, rowHeight, c.text("תנאים והערות"), "R", false)
	y += rowHeight

	c.font("", 10)

	closeBox := func(bottom float64) {
		c.drawColor(colorRule)
		c.pdf.SetLineWidth(0.5)
		c.pdf.Rect(x, segTop, width, bottom-segTop, "D")
	}

	for _, l := range lines {
		if y+termsLine+panelPadding > contentBottom {
			closeBox(y + panelPadding)
			c.newPage()

			segTop = c.y
			y = segTop + panelPadding
			c.font("", 10)
		}

		c.textColor(colorText)
		c.cell(x+panelPadding, y, innerW, termsLine, c.text(l), "R", false)
		y += termsLine
	}

	closeBox(y + panelPadding)
	c.y = y + panelPadding + 20
}

// wrap breaks text into lines no wider than w in the current font. Line
// breaks in the text are kept.
func (c *canvas) wrap(s string, w float64) []string {
	var out []string

	for para := range strings.SplitSeq(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			cand := line + " " + word
			if c.pdf.GetStringWidth(c.text(cand)) > w {
				out = append(out, line)
				line = word

				continue
			}

			line = cand
		}

		out = append(out, line)
	}

	return out
}

// signatures draws, right to left, the client signature, date and business
// signature boxes.
func (c *canvas) signatures() {
	const (
		boxHeight = 45.0
		gap       = 20.0
	)

	c.ensure(boxHeight + 20)

	boxW := (pageWidth - 2*margin - 2*gap) / 3
	labels := []string{"חתימת הלקוח", "תאריך", "חתימת העסק"}

	c.drawColor(colorText)
	c.pdf.SetLineWidth(0.75)
	c.font("", 10)
	c.textColor(colorMuted)

	x := pageWidth - margin
	for _, l := range labels {
		x -= boxW

		lineY := c.y + boxHeight - 10
		c.pdf.Line(x, lineY, x+boxW, lineY)
		c.cell(x, lineY+2, boxW, 14, c.text(l), "C", false)

		x -= gap
	}

	c.y += boxHeight + 20
}

// footer runs as each page closes.
func (c *canvas) footer() {
	b := c.doc.Business

	parts := make([]string, 0, 3)
	for _, s := range []string{b.Name, b.Phone, b.Email} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	c.rule(pageHeight - margin - 15)

	c.font("", 8)
	c.textColor(colorMuted)
	c.cell(margin, pageHeight-margin-12, pageWidth-2*margin, 12, c.text(strings.Join(parts, " | ")), "C", false)
	c.cell(margin, pageHeight-margin+2, pageWidth-2*margin, 12, c.text(fmt.Sprintf("עמוד %d", c.pdf.PageNo())), "C", false)
}
