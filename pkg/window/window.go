// Package window is the Ebitengine front end of the piano-roll player.
package window

import (
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/zurustar/pianoroll/pkg/logger"
	"github.com/zurustar/pianoroll/pkg/loop"
	"github.com/zurustar/pianoroll/pkg/player"
	"golang.org/x/image/font/basicfont"
)

var (
	backgroundColor = color.RGBA{0xF4, 0xF6, 0xF7, 0xFF}
	toolbarColor    = color.RGBA{0x26, 0x32, 0x38, 0xFF}
	buttonColor     = color.RGBA{0x45, 0x5A, 0x64, 0xFF}
	activeColor     = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	selectedColor   = color.RGBA{0xF5, 0x9E, 0x0B, 0xFF}
	playheadColor   = color.RGBA{0xE5, 0x39, 0x35, 0xFF}
	regionColor     = color.RGBA{0x00, 0x87, 0xC8, 0x30}
	handleColor     = color.RGBA{0x00, 0x5A, 0x8C, 0xFF}
	bandColor       = color.RGBA{0x33, 0x33, 0x33, 0xFF}
	textColor       = color.White
	alertTextColor  = color.RGBA{0xB7, 0x1C, 0x1C, 0xFF}
	defaultFace     = text.NewGoXFace(basicfont.Face7x13)
)

// レイアウト定数（ピクセル）
const (
	toolbarHeight = 28
	loopBarHeight = 12 // 範囲の上端にあるドラッグ用バー
	handleWidth   = 2
	handleGrab    = 4
	wheelStep     = 40
	buttonWidth   = 60
	buttonGap     = 8
	clickSlop     = 3 // これ以下の移動はクリックとして扱う
)

// Options はウィンドウの設定
type Options struct {
	Title   string
	Width   int
	Height  int
	Timeout time.Duration // 0は無制限
	Alert   string        // 空でなければ読み込み失敗として表示する
}

type dragMode int

const (
	dragNone dragMode = iota
	dragHandle
	dragBand
)

// pointer はマウスドラッグの状態
type pointer struct {
	mode   dragMode
	handle loop.Handle
	lastX  float64 // 画面座標
	startX float64 // ロール座標
	startY float64
	curX   float64
	curY   float64
}

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	player    *player.Player
	opts      Options
	startTime time.Time
	pointer   pointer
	log       *slog.Logger
}

// NewGame Gameを作成
func NewGame(p *player.Player, opts Options) *Game {
	if opts.Width <= 0 {
		opts.Width = 960
	}
	if opts.Height <= 0 {
		opts.Height = 360
	}
	p.SetViewWidth(float64(opts.Width))
	return &Game{
		player:    p,
		opts:      opts,
		startTime: time.Now(),
		log:       logger.For("window"),
	}
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.opts.Timeout > 0 && time.Since(g.startTime) >= g.opts.Timeout {
		return ebiten.Termination
	}

	if err := g.handle(pollInput()); err != nil {
		return err
	}

	// ループ範囲の補正と再生位置の追従
	g.player.Update()
	return nil
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.opts.Width, g.opts.Height
}

// Run GUIモードでウィンドウを実行
func Run(p *player.Player, opts Options) error {
	game := NewGame(p, opts)

	ebiten.SetWindowSize(game.opts.Width, game.opts.Height)
	title := opts.Title
	if title == "" {
		title = "pianoroll"
	}
	ebiten.SetWindowTitle(title)

	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
