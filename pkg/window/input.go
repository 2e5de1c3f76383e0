package window

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/zurustar/pianoroll/pkg/loop"
	"github.com/zurustar/pianoroll/pkg/selection"
)

// inputState は1フレーム分の入力
type inputState struct {
	cursorX, cursorY float64
	pressed          bool // 左ボタン押し下げ
	held             bool
	released         bool
	wheelX, wheelY   float64
	shift            bool

	space, rewind, loop, up, down, escape bool
}

// pollInput はEbitengineから入力を取得する
func pollInput() inputState {
	x, y := ebiten.CursorPosition()
	wx, wy := ebiten.Wheel()
	return inputState{
		cursorX:  float64(x),
		cursorY:  float64(y),
		pressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		held:     ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		released: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		wheelX:   wx,
		wheelY:   wy,
		shift:    ebiten.IsKeyPressed(ebiten.KeyShift),
		space:    inpututil.IsKeyJustPressed(ebiten.KeySpace),
		rewind:   inpututil.IsKeyJustPressed(ebiten.KeyR),
		loop:     inpututil.IsKeyJustPressed(ebiten.KeyL),
		up:       inpututil.IsKeyJustPressed(ebiten.KeyUp),
		down:     inpututil.IsKeyJustPressed(ebiten.KeyDown),
		escape:   inpututil.IsKeyJustPressed(ebiten.KeyEscape),
	}
}

type button int

const (
	buttonNone button = iota
	buttonPlay
	buttonRewind
	buttonLoop
)

var toolbarButtons = []button{buttonPlay, buttonRewind, buttonLoop}

// buttonRect はツールバー上のボタンの位置
func buttonRect(b button) (x, y, w, h float64) {
	for i, tb := range toolbarButtons {
		if tb == b {
			return float64(buttonGap + i*(buttonWidth+buttonGap)), 4, buttonWidth, toolbarHeight - 8
		}
	}
	return 0, 0, 0, 0
}

func buttonAt(x, y float64) button {
	for _, b := range toolbarButtons {
		bx, by, bw, bh := buttonRect(b)
		if x >= bx && x < bx+bw && y >= by && y < by+bh {
			return b
		}
	}
	return buttonNone
}

// toRoll は画面座標をロール座標に変換する
func (g *Game) toRoll(x, y float64) (float64, float64) {
	return x + g.player.Scroll(), y - toolbarHeight
}

// handle は1フレーム分の入力を処理する
func (g *Game) handle(in inputState) error {
	if in.escape {
		return ebiten.Termination
	}
	if g.opts.Alert != "" || !g.player.Loaded() {
		return nil
	}

	if in.space {
		g.togglePlay()
	}
	if in.rewind {
		g.player.Rewind()
	}
	if in.loop {
		g.toggleLoop()
	}
	if in.up || in.down {
		step := 1
		if in.shift {
			step = 10
		}
		if in.down {
			step = -step
		}
		g.player.SetTempo(g.player.Tempo() + step)
	}
	if dx := (in.wheelX - in.wheelY) * wheelStep; dx != 0 {
		g.player.ScrollBy(dx)
	}

	g.handlePointer(in)
	return nil
}

func (g *Game) togglePlay() {
	if err := g.player.TogglePlay(); err != nil {
		g.log.Warn("play failed", "error", err)
	}
}

func (g *Game) toggleLoop() {
	g.pointer = pointer{}
	g.player.ToggleLoop()
}

func (g *Game) press(b button) {
	switch b {
	case buttonPlay:
		g.togglePlay()
	case buttonRewind:
		g.player.Rewind()
	case buttonLoop:
		g.toggleLoop()
	}
}

// handleAt はロール座標にあるループ範囲のハンドルを返す
func (g *Game) handleAt(rx, ry float64) (loop.Handle, bool) {
	ctrl := g.player.LoopController()
	if ctrl == nil || !ctrl.Visible() {
		return 0, false
	}
	r := ctrl.Region()
	switch {
	case math.Abs(rx-r.X) <= handleGrab:
		return loop.HandleLeft, true
	case math.Abs(rx-r.Right()) <= handleGrab:
		return loop.HandleRight, true
	case ry >= 0 && ry < loopBarHeight && rx > r.X && rx < r.Right():
		return loop.HandleBody, true
	}
	return 0, false
}

func (g *Game) handlePointer(in inputState) {
	ctrl := g.player.LoopController()
	rx, ry := g.toRoll(in.cursorX, in.cursorY)

	switch {
	case in.pressed:
		if b := buttonAt(in.cursorX, in.cursorY); b != buttonNone {
			g.press(b)
			return
		}
		if in.cursorY < toolbarHeight {
			return
		}
		if h, ok := g.handleAt(rx, ry); ok && ctrl.BeginDrag(h) {
			g.pointer = pointer{mode: dragHandle, handle: h, lastX: in.cursorX}
		} else {
			g.pointer = pointer{mode: dragBand, startX: rx, startY: ry, curX: rx, curY: ry}
		}
	case in.held && g.pointer.mode == dragHandle:
		if dx := in.cursorX - g.pointer.lastX; dx != 0 {
			ctrl.DragBy(g.pointer.handle, dx)
			g.pointer.lastX = in.cursorX
		}
	case in.held && g.pointer.mode == dragBand:
		g.pointer.curX, g.pointer.curY = rx, ry
	}

	if !in.released {
		return
	}
	switch g.pointer.mode {
	case dragHandle:
		ctrl.EndDrag(g.pointer.handle)
	case dragBand:
		area := g.bandRect(rx, ry)
		if math.Abs(area.W) <= clickSlop && math.Abs(area.H) <= clickSlop {
			sel := g.player.SelectAt(g.pointer.startX, g.pointer.startY, in.shift)
			g.log.Debug("note clicked", "notes", len(sel))
			break
		}
		sel := g.player.SelectArea(area, in.shift)
		g.log.Debug("area selected", "notes", len(sel))
	}
	g.pointer = pointer{}
}

// bandRect は範囲選択の矩形（ロール座標）
func (g *Game) bandRect(rx, ry float64) selection.Rect {
	return selection.Rect{
		X: g.pointer.startX,
		Y: g.pointer.startY,
		W: rx - g.pointer.startX,
		H: ry - g.pointer.startY,
	}
}
