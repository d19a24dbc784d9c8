package ui

// SpinnerProgress shows an indeterminate "still running" animation next
// to the dashboard's status line; a fuzzing session has no known
// completion percentage when Iterations is infinite, so there is no
// bounded progress bar here, only an activity indicator.
type SpinnerProgress struct {
	frame   int
	text    string
	running bool
}

// NewSpinnerProgress creates a new spinner progress.
func NewSpinnerProgress() *SpinnerProgress {
	return &SpinnerProgress{
		text:    "fuzzing",
		running: true,
	}
}

// SetText sets the spinner text.
func (s *SpinnerProgress) SetText(text string) {
	s.text = text
}

// Start starts the spinner.
func (s *SpinnerProgress) Start() {
	s.running = true
}

// Stop stops the spinner.
func (s *SpinnerProgress) Stop() {
	s.running = false
}

// Tick advances the spinner animation.
func (s *SpinnerProgress) Tick() {
	if s.running {
		s.frame = (s.frame + 1) % len(SpinnerChars)
	}
}

// Render renders the spinner.
func (s *SpinnerProgress) Render() string {
	if !s.running {
		return SuccessStyle.Render("✓") + " " + s.text
	}
	return InfoStyle.Render(SpinnerChars[s.frame]) + " " + s.text
}
