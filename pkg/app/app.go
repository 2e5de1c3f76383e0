package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/zurustar/pianoroll/pkg/cli"
	"github.com/zurustar/pianoroll/pkg/fileutil"
	"github.com/zurustar/pianoroll/pkg/logger"
	"github.com/zurustar/pianoroll/pkg/player"
	"github.com/zurustar/pianoroll/pkg/synth"
	"github.com/zurustar/pianoroll/pkg/window"
)

// ErrNoMIDIFile はMIDIファイルが指定されていない場合のエラー
var ErrNoMIDIFile = errors.New("no MIDI file specified")

// headlessTick はヘッドレスモードでオフライン描画する間隔
const headlessTick = 20 * time.Millisecond

// pumper はオーディオデバイスなしで再生を進める
type pumper interface {
	Pump(d time.Duration)
}

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	embedFS fs.FS
	stderr  io.Writer
}

// New Applicationを作成
func New(embedFS fs.FS) *Application {
	return &Application{
		embedFS: embedFS,
		stderr:  os.Stderr,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started")

	if app.config.MIDIPath == "" {
		return ErrNoMIDIFile
	}
	midiPath, err := fileutil.ResolvePath(app.config.MIDIPath)
	if err != nil {
		// 読み込み時にデコード失敗として報告する
		midiPath = app.config.MIDIPath
	}

	// 3. SoundFontの検索と読み込み
	loc, err := findSoundFont(app.embedFS, app.config.SoundFont, filepath.Dir(midiPath))
	if err != nil {
		return fmt.Errorf("failed to find SoundFont: %w", err)
	}
	app.log.Info("SoundFont found", "location", loc.String(), "embedded", loc.IsEmbedded())

	sf, err := loadSoundFont(loc)
	if err != nil {
		return fmt.Errorf("failed to load SoundFont: %w", err)
	}

	// 4. シンセサイザーとプレイヤーの作成
	var audioCtx *audio.Context
	if !app.config.Headless {
		audioCtx = audio.NewContext(synth.SampleRate)
	}
	sp, err := synth.NewPlayer(sf, audioCtx)
	if err != nil {
		return fmt.Errorf("failed to create synthesizer: %w", err)
	}
	defer sp.Close()
	sp.SetMuted(app.config.Headless)

	p := player.New(player.NewCoordinator(), sp, player.Options{
		Autoplay:     app.config.Autoplay,
		MinLoopWidth: app.config.MinLoopArea,
		ViewWidth:    float64(app.config.Width),
	})
	defer p.Close()

	// 5. MIDIファイルの読み込み
	loadErr := p.Load(midiPath)
	if loadErr != nil {
		app.log.Error("MIDI file could not be loaded", "path", midiPath, "error", loadErr)
		if app.config.Headless {
			fmt.Fprintln(app.stderr, player.AlertMessage)
			return loadErr
		}
		if err := window.Run(p, app.windowOptions(player.AlertMessage)); err != nil {
			app.log.Error("window failed", "error", err)
		}
		return loadErr
	}

	// 6. 再生
	if app.config.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := app.runHeadless(ctx, p, sp, headlessTick); err != nil {
			return err
		}
	} else if err := window.Run(p, app.windowOptions("")); err != nil {
		return err
	}

	app.log.Info("Application terminated normally")
	return nil
}

func (app *Application) windowOptions(alert string) window.Options {
	title := "pianoroll - " + filepath.Base(app.config.MIDIPath)
	return window.Options{
		Title:   title,
		Width:   app.config.Width,
		Height:  app.config.Height,
		Timeout: app.config.Timeout,
		Alert:   alert,
	}
}

// runHeadless はオーディオデバイスなしで再生する
// 再生が終わるか、タイムアウトするか、ctxがキャンセルされるまで戻らない
func (app *Application) runHeadless(ctx context.Context, p *player.Player, out pumper, tick time.Duration) error {
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	if !p.IsPlaying() {
		if err := p.Play(); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
	}
	app.log.Info("Headless playback started", "timeout", app.config.Timeout)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			app.log.Info("Headless playback interrupted", "reason", context.Cause(ctx))
			return nil
		case now := <-ticker.C:
			out.Pump(now.Sub(last))
			last = now
			p.Update()
			if p.State() == player.Idle {
				app.log.Info("Headless playback finished")
				return nil
			}
		}
	}
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}
