package moderation

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	perr "scamwatch/internal/platform/errors"
	pstrings "scamwatch/internal/platform/strings"
)

// Panel describes one evidence card: who was removed, why, and the
// message that triggered it
type Panel struct {
	Username string
	UID      string
	Reason   string
	Message  string
	Avatar   image.Image // optional
	// Accent is the guild's 0xRRGGBB color used for the border
	Accent int
}

const (
	panelWidth   = 500
	panelPadding = 15
	lineHeight   = 20
	avatarSize   = 40
	avatarGap    = 20
	borderWidth  = 2
	maxMsgChars  = 1000
)

var (
	panelBG   = color.RGBA{R: 26, G: 26, B: 26, A: 255}
	panelText = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// RenderPanel draws the evidence card and returns it PNG-encoded
func RenderPanel(p Panel) ([]byte, error) {
	face := basicfont.Face7x13
	msg := pstrings.Truncate(p.Message, maxMsgChars)

	fields := []string{
		"Username: " + p.Username,
		"UID: " + p.UID,
		"Reason: " + p.Reason,
		"Sent Message:",
	}

	avail := panelWidth - panelPadding*2 - borderWidth*2
	if p.Avatar != nil {
		avail -= avatarSize + avatarGap
	}
	wrapped := wrapText(msg, face, avail)

	height := (len(fields)+len(wrapped))*lineHeight + 10 + panelPadding*2
	img := image.NewRGBA(image.Rect(0, 0, panelWidth, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(panelBG), image.Point{}, draw.Src)

	drawBorder(img, accentColor(p.Accent))

	if p.Avatar != nil {
		drawAvatar(img, p.Avatar, panelWidth-avatarSize-avatarGap, panelPadding)
	}

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(panelText),
		Face: face,
	}
	y := panelPadding + face.Ascent
	for _, line := range append(fields, wrapped...) {
		d.Dot = fixed.P(panelPadding, y)
		d.DrawString(line)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "encode evidence panel failed")
	}
	return buf.Bytes(), nil
}

func accentColor(rgb int) color.RGBA {
	if rgb <= 0 {
		return color.RGBA{R: 102, G: 102, B: 102, A: 255}
	}
	return color.RGBA{
		R: uint8(rgb >> 16),
		G: uint8(rgb >> 8),
		B: uint8(rgb),
		A: 255,
	}
}

// wrapText breaks text into lines that fit maxWidth pixels, splitting
// on spaces. A single word wider than the line goes on its own line
func wrapText(text string, face font.Face, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var cur []string
	curWidth := 0
	spaceWidth := textWidth(face, " ")

	for _, w := range words {
		ww := textWidth(face, w)
		if len(cur) > 0 && curWidth+spaceWidth+ww > maxWidth {
			lines = append(lines, strings.Join(cur, " "))
			cur, curWidth = nil, 0
		}
		if len(cur) > 0 {
			curWidth += spaceWidth
		}
		cur = append(cur, w)
		curWidth += ww
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func drawBorder(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	src := image.NewUniform(c)
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+borderWidth), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Max.Y-borderWidth, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+borderWidth, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Max.X-borderWidth, b.Min.Y, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
}

// drawAvatar pastes the avatar clipped to a circle
func drawAvatar(img *image.RGBA, avatar image.Image, x, y int) {
	scaled := scaleTo(avatar, avatarSize)
	r := avatarSize / 2
	for dy := 0; dy < avatarSize; dy++ {
		for dx := 0; dx < avatarSize; dx++ {
			cx, cy := dx-r, dy-r
			if cx*cx+cy*cy > r*r {
				continue
			}
			img.Set(x+dx, y+dy, scaled.At(dx, dy))
		}
	}
}

// scaleTo resizes with nearest-neighbor sampling; avatars are small
// enough that quality does not matter
func scaleTo(src image.Image, size int) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			sx := b.Min.X + x*b.Dx()/size
			sy := b.Min.Y + y*b.Dy()/size
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// FetchAvatar downloads and decodes a profile image. Failures are soft;
// the panel renders without an avatar
func FetchAvatar(ctx context.Context, rawURL string) (image.Image, error) {
	if rawURL == "" {
		return nil, perr.NotFoundf("no avatar url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, perr.Externalf("fetch avatar: bad request: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, perr.Externalf("fetch avatar: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, perr.Externalf("fetch avatar: http status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, perr.Externalf("fetch avatar: decode: %v", err)
	}
	return img, nil
}
