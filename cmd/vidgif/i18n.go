package main

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// App
		"Convert video clips to animated GIFs":                                                                   "動画クリップをアニメーション GIF に変換します",
		"vidgif samples a time window of a video at a fixed frame rate and encodes the frames as a looping GIF.": "vidgif は動画の指定区間を一定のフレームレートでサンプリングし、ループする GIF としてエンコードします。",
		"Show version information":                                                                               "バージョン情報を表示",
		"vidgif version %s":                                                                                      "vidgif バージョン %s",
		"Convert a video clip to an animated GIF":                                                                "動画クリップをアニメーション GIF に変換",
		"Show dimensions, duration and codec of videos":                                                          "動画のサイズ・長さ・コーデックを表示",

		// Flag categories
		"Output":           "出力",
		"Clip":             "クリップ",
		"Size and Quality": "サイズと品質",
		"Backends":         "バックエンド",
		"Debug":            "デバッグ",
		"Logging":          "ログ",

		// Flags
		"Output GIF file path (default: input name with .gif)":           "出力 GIF ファイルのパス (デフォルト: 入力名の拡張子を .gif に変更)",
		"YAML configuration file":                                        "YAML 設定ファイル",
		"Output conversion summary to file (Markdown format)":            "変換サマリーをファイルに出力 (Markdown 形式)",
		"Hide the progress bar":                                          "プログレスバーを表示しない",
		"Window start in seconds":                                        "区間の開始 (秒)",
		"Window end in seconds (default: start + 3)":                     "区間の終了 (秒, デフォルト: 開始 + 3)",
		"Frames per second (1-60, default: 10)":                          "フレームレート (1-60, デフォルト: 10)",
		"Output width (height follows the aspect ratio)":                 "出力幅 (高さはアスペクト比に従う)",
		"Output height (width follows the aspect ratio)":                 "出力高さ (幅はアスペクト比に従う)",
		"Maximum width when no size is given (default: 480, 0 = native)": "サイズ未指定時の最大幅 (デフォルト: 480, 0 = 元のサイズ)",
		"Scale preset (360p, 480p, 720p)":                                "サイズプリセット (360p, 480p, 720p)",
		"Quality (1-30, lower is better, default: 10)":                   "品質 (1-30, 小さいほど高品質, デフォルト: 10)",
		"Quality preset (low, medium, high)":                             "品質プリセット (low, medium, high)",
		"Conversion engine (pipeline, ffmpeg)":                           "変換エンジン (pipeline, ffmpeg)",
		"Frame source for the pipeline engine (ffmpeg, chrome)":          "pipeline エンジンのフレーム取得元 (ffmpeg, chrome)",
		"GIF codec (builtin, ffmpeg)":                                    "GIF コーデック (builtin, ffmpeg)",
		"Where the codec runs (inprocess, process)":                      "コーデックの実行場所 (inprocess, process)",
		"Path to ffmpeg executable":                                      "ffmpeg 実行ファイルのパス",
		"Path to Chrome executable":                                      "Chrome 実行ファイルのパス",
		"Run browser in non-headless mode":                               "ブラウザを非ヘッドレスモードで実行",
		"Do not download Chromium when Chrome is not found":              "Chrome が見つからない場合に Chromium をダウンロードしない",
		"Enable debug output":                                            "デバッグ出力を有効化",
		"Directory for debug output":                                     "デバッグ出力先ディレクトリ",
		"Log level (debug, info, warn, error)":                           "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                                        "すべてのログ出力を抑制",

		// Convert
		"Video argument is required":                "動画ファイルを指定してください",
		"Exactly one video argument is expected":    "動画ファイルは 1 つだけ指定してください",
		"Converting %s (%s to %s, %d fps)":          "%s を変換中 (%s から %s, %d fps)",
		"Conversion failed [%s]: %s":                "変換に失敗しました [%s]: %s",
		"Output saved to %s (%s, %d frames, %dx%d)": "出力を %s に保存しました (%s, %d フレーム, %dx%d)",
		"Failed to write summary: %s":               "サマリーの書き込みに失敗しました: %s",
		"Summary saved to %s":                       "サマリーを %s に保存しました",

		// Progress
		"Sampling":   "サンプリング",
		"Encoding":   "エンコード",
		"Palette":    "パレット",
		"Rendering":  "レンダリング",
		"Finalizing": "仕上げ",
		"Done":       "完了",

		// Probe
		"Failed to probe %s: %s": "%s の解析に失敗しました: %s",
		"File":                   "ファイル",
		"Width":                  "幅",
		"Height":                 "高さ",
		"Duration":               "長さ",
		"Size":                   "サイズ",
		"Codec":                  "コーデック",
		"Prober":                 "解析方法",

		// Summary
		"Conversion Summary": "変換サマリー",
		"Generated":          "生成日時",
		"Source":             "入力",
		"Settings":           "設定",
		"Window":             "区間",
		"Frame Rate":         "フレームレート",
		"Quality":            "品質",
		"Engine":             "エンジン",
		"Media Source":       "フレーム取得元",
		"Worker":             "ワーカー",
		"Frames":             "フレーム数",
		"Playback":           "再生時間",
		"File Size":          "ファイルサイズ",
		"Timing":             "処理時間",
		"Total":              "合計",
		"Item":               "項目",
		"Value":              "値",
	})
}
