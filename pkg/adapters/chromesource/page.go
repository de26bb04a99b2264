package chromesource

import (
	"bytes"
	"html/template"
	"net/url"
	"path/filepath"
	"strings"
)

// bindingName is the CDP runtime binding the page reports events through.
// The page script calls it by this name.
const bindingName = "vidgifEvent"

// pageEvent is the JSON payload the page sends through the binding.
type pageEvent struct {
	Type       string  `json:"type"`
	Time       float64 `json:"time"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Duration   float64 `json:"duration"`
	ReadyState int     `json:"readyState"`
	Error      string  `json:"error"`
	ID         int64   `json:"id"`
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;background:#000">
<video id="v" muted playsinline preload="auto" src="{{.}}"></video>
<script>
(function () {
  const video = document.getElementById("v");
  const send = (ev) => window.vidgifEvent(JSON.stringify(ev));
  const state = () => ({ time: video.currentTime, readyState: video.readyState });

  video.addEventListener("loadedmetadata", () => send(Object.assign(state(), {
    type: "loadedmetadata",
    width: video.videoWidth,
    height: video.videoHeight,
    duration: video.duration,
  })));
  video.addEventListener("loadeddata", () => send(Object.assign(state(), { type: "loadeddata" })));
  video.addEventListener("seeked", () => send(Object.assign(state(), { type: "seeked" })));
  video.addEventListener("error", () => {
    const err = video.error;
    send({ type: "error", error: err ? (err.message || "media error " + err.code) : "unknown media error" });
  });

  window.vidgif = {
    seek(t) { video.currentTime = t; return true; },
    frame(id) {
      let done = false;
      const fire = () => { if (!done) { done = true; send({ type: "frame", id: id }); } };
      if (typeof video.requestVideoFrameCallback === "function") {
        video.requestVideoFrameCallback(fire);
      }
      requestAnimationFrame(() => requestAnimationFrame(fire));
      return true;
    },
    capture() {
      const canvas = document.createElement("canvas");
      canvas.width = video.videoWidth;
      canvas.height = video.videoHeight;
      canvas.getContext("2d").drawImage(video, 0, 0);
      return canvas.toDataURL("image/png");
    },
  };
})();
</script>
</body>
</html>
`))

// renderPage returns the player page for the video at path.
func renderPage(path string) ([]byte, error) {
	src, err := fileURL(path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, template.URL(src)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fileURL converts path to an absolute file:// URL.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String(), nil
}
