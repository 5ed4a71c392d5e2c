package ui

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar shows conversion progress as a percentage.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a bar running from 0 to total.
func NewProgressBar(total int, description string) *ProgressBar {
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(errOut, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

// Set moves the bar to current.
func (p *ProgressBar) Set(current int) {
	_ = p.bar.Set(current)
}

// Reset returns the bar to zero after a failure.
func (p *ProgressBar) Reset() {
	p.bar.Reset()
	_ = p.bar.Clear()
}

// Finish completes the bar.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Spinner shows that a call of unknown length is running.
type Spinner struct {
	spinner *spinner.Spinner
	running bool
}

// NewSpinner creates a stopped spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = errOut
	return &Spinner{spinner: s}
}

// Start starts the animation.
func (s *Spinner) Start() {
	if !s.running {
		s.spinner.Start()
		s.running = true
	}
}

// Stop stops the animation and clears the line. Stopping a stopped spinner
// does nothing.
func (s *Spinner) Stop() {
	if s.running {
		s.spinner.Stop()
		s.running = false
	}
}
