package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting conversion":               "変換を開始します",
		"Conversion completed successfully": "変換が正常に完了しました",
		"Interrupted, shutting down...":     "中断されました。シャットダウン中...",
		"Invalid configuration: %s":         "設定が不正です: %s",

		// Plan stage
		"Planned %d frames from %s to %s": "%d フレームを計画しました (%s から %s)",
		"Failed to plan timestamps: %s":   "タイムスタンプの計画に失敗しました: %s",

		// Sample stage
		"Failed to load source: %s":         "動画の読み込みに失敗しました: %s",
		"Sampled %d frames at %dx%d":        "%d フレームを %dx%d でサンプリングしました",
		"Failed to sample frames: %s":       "フレームのサンプリングに失敗しました: %s",
		"Failed to save debug frame %d: %s": "デバッグフレーム %d の保存に失敗しました: %s",

		// Pack and encode stages
		"Failed to pack frames: %s":          "フレームのパックに失敗しました: %s",
		"Encoding GIF with quality %d":       "品質 %d で GIF をエンコード中",
		"GIF encoded: %d bytes":              "GIF エンコード完了: %d バイト",
		"Failed to encode GIF: %s":           "GIF のエンコードに失敗しました: %s",
		"Failed to write output: %s":         "出力の書き込みに失敗しました: %s",
		"Worker panic while handling %s: %v": "%s の処理中にワーカーがパニックしました: %v",

		// ffmpeg engine
		"Generating palette":            "パレットを生成中",
		"Rendering GIF with quality %d": "品質 %d で GIF をレンダリング中",
	})
}
