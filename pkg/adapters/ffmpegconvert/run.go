package ffmpegconvert

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// runFunc runs ffmpeg with args and reports the output position, in
// seconds, as ffmpeg publishes it.
type runFunc func(ctx context.Context, args []string, onTime func(seconds float64)) error

// execRunner runs bin with "-progress pipe:1" appended and parses the
// key=value stream it writes to stdout.
func execRunner(bin string) runFunc {
	return func(ctx context.Context, args []string, onTime func(float64)) error {
		full := append(append([]string{}, args[:len(args)-1]...), "-progress", "pipe:1", "-nostats", args[len(args)-1])
		cmd := exec.CommandContext(ctx, bin, full...)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return err
		}
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start %s: %w", filepath.Base(bin), err)
		}

		parseProgress(stdout, onTime)

		if err := cmd.Wait(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			msg := strings.TrimSpace(stderr.String())
			if len(msg) > 2000 {
				msg = "..." + msg[len(msg)-2000:]
			}
			return fmt.Errorf("%s failed: %w\nstderr: %s", filepath.Base(bin), err, msg)
		}
		return nil
	}
}

// parseProgress reads ffmpeg's progress stream until EOF.
func parseProgress(r io.Reader, onTime func(float64)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		// out_time_ms is in microseconds despite its name.
		case "out_time_us", "out_time_ms":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 && onTime != nil {
				onTime(float64(us) / 1e6)
			}
		}
	}
	io.Copy(io.Discard, r)
}
