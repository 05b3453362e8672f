package main

import (
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/porticus-lab/filekit"
)

func newBar(max int64, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(max,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { os.Stderr.WriteString("\n") }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// watch mirrors the session's progress on a bar until the returned
// function is called.
func watch(s *filekit.Session, name string) (stop func()) {
	bar := newBar(100, name)
	unsubscribe := s.Subscribe(func(st filekit.State) {
		switch st.Status {
		case filekit.StatusUploading:
			bar.Describe(name + " (reading)")
		case filekit.StatusProcessing:
			bar.Describe(name)
			_ = bar.Set(st.Progress)
		case filekit.StatusComplete:
			_ = bar.Finish()
		}
	})
	return func() {
		unsubscribe()
		_ = bar.Exit()
	}
}
