package window

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/zurustar/pianoroll/pkg/player"
)

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	if g.opts.Alert != "" {
		g.drawAlert(screen)
		return
	}
	if !g.player.Loaded() {
		return
	}

	v := g.player.View()
	g.drawRoll(screen, v)
	g.drawToolbar(screen, v)
}

func (g *Game) drawAlert(screen *ebiten.Image) {
	drawText(screen, g.opts.Alert, 20, 40, alertTextColor)
	drawText(screen, "Press ESC to exit", 20, 64, bandColor)
}

// drawRoll はノート、再生位置、ループ範囲を描画する
func (g *Game) drawRoll(screen *ebiten.Image, v player.View) {
	layout := g.player.Layout()
	cfg := layout.Config()
	ox := -v.Scroll
	oy := float64(toolbarHeight)
	width := float64(g.opts.Width)

	active := toSet(v.Active)
	sel := g.player.Selection()
	var banded map[int]bool
	if g.pointer.mode == dragBand {
		// 選択中の矩形に触れているノートを先に強調する
		banded = toSet(layout.Intersecting(g.bandRect(g.pointer.curX, g.pointer.curY)))
	}

	for _, r := range layout.Rects() {
		x := r.X + ox
		if x+r.W < 0 || x > width {
			continue
		}
		var clr color.Color = cfg.NoteRGB
		switch {
		case active[r.Index]:
			clr = cfg.ActiveNoteRGB
		case banded[r.Index] || sel.IsSelected(r.Index):
			clr = selectedColor
		}
		fillRect(screen, x, r.Y+oy, r.W, r.H, clr)
	}

	if v.RegionVisible {
		reg := v.Region
		h := layout.Height()
		fillRect(screen, reg.X+ox, oy, reg.Width, h, regionColor)
		fillRect(screen, reg.X+ox, oy, reg.Width, loopBarHeight, handleColor)
		fillRect(screen, reg.X+ox, oy, handleWidth, h, handleColor)
		fillRect(screen, reg.Right()+ox-handleWidth, oy, handleWidth, h, handleColor)
	}

	px := float32(v.Playhead + ox)
	vector.StrokeLine(screen, px, float32(oy), px, float32(oy+layout.Height()), 1, playheadColor, false)

	if g.pointer.mode == dragBand {
		x0, y0 := g.pointer.startX+ox, g.pointer.startY+oy
		x1, y1 := g.pointer.curX+ox, g.pointer.curY+oy
		vector.StrokeRect(screen, float32(min(x0, x1)), float32(min(y0, y1)),
			float32(math.Abs(x1-x0)), float32(math.Abs(y1-y0)), 1, bandColor, false)
	}
}

// drawToolbar はボタンとテンポ表示を描画する
func (g *Game) drawToolbar(screen *ebiten.Image, v player.View) {
	fillRect(screen, 0, 0, float64(g.opts.Width), toolbarHeight, toolbarColor)

	playLabel := "Play"
	if v.ShowPause {
		playLabel = "Pause"
	}
	labels := map[button]string{
		buttonPlay:   playLabel,
		buttonRewind: "Rewind",
		buttonLoop:   "Loop",
	}
	for _, b := range toolbarButtons {
		x, y, w, h := buttonRect(b)
		var clr color.Color = buttonColor
		if (b == buttonLoop && v.LoopActive) || (b == buttonPlay && v.ShowPause) {
			clr = activeColor
		}
		fillRect(screen, x, y, w, h, clr)
		drawText(screen, labels[b], x+6, y+3, textColor)
	}

	x, _, w, _ := buttonRect(buttonLoop)
	info := fmt.Sprintf("Tempo: %d", v.Tempo)
	if seq := g.player.Sequence(); seq != nil && seq.Title != "" {
		info += "   " + seq.Title
	}
	drawText(screen, info, x+w+16, 7, textColor)
}

func fillRect(screen *ebiten.Image, x, y, w, h float64, clr color.Color) {
	vector.FillRect(screen, float32(x), float32(y), float32(w), float32(h), clr, false)
}

func drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, defaultFace, op)
}

func toSet(indexes []int) map[int]bool {
	set := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		set[idx] = true
	}
	return set
}
