package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerTick = 80 * time.Millisecond

// Spinner animates a single terminal line while a slow read is in flight.
// It stops when Stop is called or when the context it was created with ends,
// and leaves the line blank either way.
type Spinner struct {
	w      io.Writer
	parent context.Context
	halt   context.CancelFunc
	run    context.Context
	once   sync.Once
	done   chan struct{} // closed when the animation goroutine exits; nil before Start

	mu    sync.Mutex
	label string
	drawn int // runes on the line that clear must overwrite
}

func newSpinner(ctx context.Context, w io.Writer, label string) *Spinner {
	run, halt := context.WithCancel(ctx)
	return &Spinner{w: w, parent: ctx, run: run, halt: halt, label: label}
}

// Start launches the animation. Once the operation has taken a second the
// elapsed seconds are appended to the label.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		begin := time.Now()
		tick := time.NewTicker(spinnerTick)
		defer tick.Stop()
		for frame := 0; ; frame++ {
			select {
			case <-s.run.Done():
				s.clear()
				return
			case <-tick.C:
				s.render(spinnerFrames[frame%len(spinnerFrames)], time.Since(begin))
			}
		}
	}()
}

// SetMessage replaces the label from the next frame on.
func (s *Spinner) SetMessage(label string) {
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
}

func (s *Spinner) render(frame rune, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.label
	if elapsed >= time.Second {
		text = fmt.Sprintf("%s (%ds)", text, int(elapsed/time.Second))
	}
	line := styles.spin.Render(string(frame)) + " " + styles.dim.Render(text)
	s.drawn = max(s.drawn, len([]rune(text))+2)
	fmt.Fprint(s.w, "\r"+line)
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > 0 {
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.drawn)+"\r")
		s.drawn = 0
	}
}

// Stop ends the animation and blanks the line. Further calls do nothing.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.halt()
		s.mu.Lock()
		done := s.done
		s.mu.Unlock()
		if done != nil {
			<-done
		}
		s.clear()
	})
}

// StopWithSuccess stops the spinner and reports message as a success.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	statusTo(s.w).success("%s", message)
}

// StopWithError stops the spinner and reports message as a failure.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	statusTo(s.w).failure("%s", message)
}

// Cancelled reports whether the context the spinner was created with has
// ended, as opposed to the spinner being stopped.
func (s *Spinner) Cancelled() bool { return s.parent.Err() != nil }
