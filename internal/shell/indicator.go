package shell

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

var thinkingStyle = lipgloss.NewStyle().Faint(true)

// Indicator is a transient single-line display shown while a completion
// request is in flight. It redraws on a ticker and erases itself on Stop.
type Indicator struct {
	stopCh    chan struct{}
	doneCh    chan struct{}
	active    bool
	lastWidth int
}

// StartThinking shows the waiting indicator. In non-interactive mode it is a
// no-op whose Stop is still safe to call.
func (p *Presenter) StartThinking() *Indicator {
	ind := &Indicator{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if !p.interactive {
		close(ind.doneCh)
		return ind
	}

	ind.active = true
	go ind.run(p)
	return ind
}

func (ind *Indicator) run(p *Presenter) {
	defer close(ind.doneCh)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ind.stopCh:
			ind.clear(p)
			return
		case <-ticker.C:
			dots := int(time.Since(start)/(250*time.Millisecond))%3 + 1
			ind.draw(p, thinkingStyle.Render("Pensando"+strings.Repeat(".", dots)))
		}
	}
}

// draw rewrites the indicator line in place. Width bookkeeping uses the
// display width of the styled content, not its byte length.
func (ind *Indicator) draw(p *Presenter, content string) {
	ind.clear(p)
	fmt.Fprint(p.out, "\r"+content)
	ind.lastWidth = ansi.StringWidth(content)
}

func (ind *Indicator) clear(p *Presenter) {
	if ind.lastWidth > 0 {
		fmt.Fprint(p.out, "\r"+strings.Repeat(" ", ind.lastWidth)+"\r")
		ind.lastWidth = 0
	}
}

// Stop erases the indicator and waits for its goroutine to finish.
func (ind *Indicator) Stop() {
	if !ind.active {
		return
	}
	ind.active = false
	close(ind.stopCh)
	<-ind.doneCh
}

// terminal returns the termenv output for cursor control, or nil when the
// presenter is not writing to the terminal.
func (p *Presenter) terminal() *termenv.Output {
	if !p.interactive {
		return nil
	}
	return termenv.NewOutput(os.Stdout)
}
