package channel

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/user/vidgif/pkg/encodeworker"
	"github.com/user/vidgif/pkg/ports"
)

// DefaultKillGrace is how long Close waits for a worker to exit on its own.
const DefaultKillGrace = 2 * time.Second

// Process spawns workers as child processes speaking the encodeworker
// protocol over stdin and stdout.
type Process struct {
	Path      string
	Args      []string
	Env       []string
	KillGrace time.Duration
	Stderr    io.Writer

	logger ports.Logger
}

// NewProcess creates a Spawner running path with args.
func NewProcess(path string, args []string, logger ports.Logger) *Process {
	return &Process{
		Path:      path,
		Args:      args,
		KillGrace: DefaultKillGrace,
		Stderr:    os.Stderr,
		logger:    logger.WithComponent("channel"),
	}
}

// NewSelfProcess spawns the running executable's "worker" subcommand.
func NewSelfProcess(codecName string, logger ports.Logger) (*Process, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return NewProcess(exe, []string{"worker", "--codec", codecName}, logger), nil
}

// Spawn starts a worker process.
func (p *Process) Spawn(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(p.Path, p.Args...)
	cmd.Stderr = p.Stderr
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}
	p.logger.Debug("Started worker process %d", cmd.Process.Pid)

	grace := p.KillGrace
	if grace <= 0 {
		grace = DefaultKillGrace
	}

	t := &processTransport{
		cmd:    cmd,
		stdin:  stdin,
		enc:    encodeworker.NewEncoder(stdin),
		msgs:   make(chan encodeworker.Message, 8),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		grace:  grace,
		logger: p.logger,
	}
	go t.readLoop(stdout)
	return t, nil
}

type processTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	enc    *encodeworker.Encoder
	msgs   chan encodeworker.Message
	done   chan struct{}
	exited chan struct{}
	grace  time.Duration
	logger ports.Logger

	once    sync.Once
	waitErr error
}

// readLoop forwards replies until stdout closes, then reaps the process.
func (t *processTransport) readLoop(stdout io.Reader) {
	dec := encodeworker.NewDecoder(stdout)
	for {
		msg, err := dec.Receive()
		if err != nil {
			if err != io.EOF {
				t.logger.Debug("Worker stream ended: %s", err)
			}
			break
		}
		select {
		case t.msgs <- msg:
		case <-t.done:
		}
	}
	close(t.msgs)

	t.waitErr = t.cmd.Wait()
	if t.waitErr != nil {
		t.logger.Debug("Worker process exited: %s", t.waitErr)
	}
	close(t.exited)
}

func (t *processTransport) Send(msg encodeworker.Message) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	case <-t.exited:
		return fmt.Errorf("worker process exited: %v", t.waitErr)
	default:
	}
	return t.enc.Send(msg)
}

func (t *processTransport) Messages() <-chan encodeworker.Message {
	return t.msgs
}

// Close closes stdin and kills the worker if it has not exited within the grace period.
func (t *processTransport) Close() error {
	t.once.Do(func() {
		close(t.done)
		t.stdin.Close()

		timer := time.NewTimer(t.grace)
		defer timer.Stop()
		select {
		case <-t.exited:
		case <-timer.C:
			t.logger.Debug("Killing worker process %d", t.cmd.Process.Pid)
			t.cmd.Process.Kill()
			<-t.exited
		}
	})
	return nil
}
