// Package cli parses command line arguments and environment variables.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// デフォルト値
const (
	DefaultWidth       = 960
	DefaultHeight      = 360
	DefaultMinLoopArea = 50
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	MIDIPath    string        // 再生するMIDIファイルのパス
	SoundFont   string        // SoundFontファイルのパス（空なら自動検索）
	Timeout     time.Duration // タイムアウト時間（0は無制限）
	LogLevel    string        // ログレベル（debug, info, warn, error）
	Headless    bool          // ヘッドレスモード
	Autoplay    bool          // 読み込み後に自動再生
	MinLoopArea float64       // ループ範囲の最小幅（ピクセル）
	Width       int           // ウィンドウ幅
	Height      int           // ウィンドウ高さ
	ShowHelp    bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--help": true, "-help": true,
	"--headless": true, "-headless": true,
	"--autoplay": true, "-autoplay": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// フラグが指定されていない項目は環境変数 HEADLESS, TIMEOUT, LOG_LEVEL, SOUNDFONT から補う
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("pianoroll", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFontファイルのパス")
	fs.StringVar(&config.SoundFont, "s", "", "SoundFontファイルのパス（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.Autoplay, "autoplay", false, "読み込み後に自動再生")
	fs.Float64Var(&config.MinLoopArea, "min-loop-area", DefaultMinLoopArea, "ループ範囲の最小幅（ピクセル）")
	fs.IntVar(&config.Width, "width", DefaultWidth, "ウィンドウ幅")
	fs.IntVar(&config.Height, "height", DefaultHeight, "ウィンドウ高さ")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if config.SoundFont == "" {
		config.SoundFont = os.Getenv("SOUNDFONT")
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 表示サイズの検証
	if config.MinLoopArea <= 0 {
		return nil, fmt.Errorf("min-loop-area must be positive, got %g", config.MinLoopArea)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %dx%d", config.Width, config.Height)
	}

	// 位置引数（MIDIファイルのパス）
	if fs.NArg() > 0 {
		config.MIDIPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように値が次の引数にある場合はそれも取り込む
			// --timeout=5 の形式やブール型フラグは単独
			if strings.Contains(arg, "=") || boolFlags[arg] {
				continue
			}
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	printHelp(os.Stdout)
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `pianoroll - piano-roll MIDI player with loop selection

Usage:
  pianoroll [options] <midi-file>

Arguments:
  midi-file     再生するStandard MIDI Fileのパス

Options:
  -s, --soundfont <path>      SoundFont (.sf2) ファイル（デフォルト: 自動検索）
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（GUIなし）
  --autoplay                  読み込み後に自動再生
  --min-loop-area <pixels>    ループ範囲の最小幅（デフォルト: %d）
  --width <pixels>            ウィンドウ幅（デフォルト: %d）
  --height <pixels>           ウィンドウ高さ（デフォルト: %d）
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  SOUNDFONT=<path>            SoundFontファイル

Controls:
  Space                       再生／一時停止
  R                           巻き戻し
  L                           ループモード切り替え
  Up / Down                   テンポ ±1（Shiftで ±10）
  Esc                         終了

Examples:
  pianoroll song.mid                       ウィンドウで再生
  pianoroll -s GeneralUser-GS.sf2 song.mid SoundFontを指定
  pianoroll --headless --autoplay -t 10 song.mid  ヘッドレスで10秒再生
  LOG_LEVEL=debug pianoroll song.mid       デバッグログを有効化
`, DefaultMinLoopArea, DefaultWidth, DefaultHeight)
}
